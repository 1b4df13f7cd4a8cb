package main

//go:generate swag init -g cmd/tokenagg/main.go -o docs

// @title           Token Aggregator API
// @version         0.1.0
// @description     Merged token data from DexScreener, Jupiter and GeckoTerminal, with a live update stream on /ws.
// @host            localhost:3000
// @BasePath        /
// @schemes         http
