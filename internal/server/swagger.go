package server

//go:generate swag init -g internal/server/server.go -o internal/server/docs

// @title PhishGuard API
// @version 0.1
// @description Read API and message bridge of the PhishGuard background service.
// @contact.name PhishGuard Maintainers
// @contact.url https://github.com/raysh454/phishguard
// @BasePath /
