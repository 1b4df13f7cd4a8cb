package jupiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchDecodesBothPayloadShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/v2/search", r.URL.Path)
		assert.Equal(t, "BONK", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`[
			{"address":"A1","chainId":101,"name":"Bonk","symbol":"BONK","priceUSD":0.00002},
			{"id":"A2","name":"Other","symbol":"OTH","usdPrice":"1.5"}
		]`))
	}))
	defer srv.Close()

	tokens, err := NewClient(srv.Client(), srv.URL, 0).Search(context.Background(), "BONK")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "A1", tokens[0].Mint())
	require.NotNil(t, tokens[0].ChainID)
	assert.Equal(t, int64(101), *tokens[0].ChainID)
	assert.Equal(t, 0.00002, tokens[0].Price())
	assert.Equal(t, "A2", tokens[1].Mint())
	assert.Nil(t, tokens[1].ChainID)
	assert.Equal(t, 1.5, tokens[1].Price())
}
