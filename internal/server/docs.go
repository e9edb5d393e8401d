package server

// @title devmanager status API
// @version 0.1.0
// @description Service status and lifecycle API for the local development stack

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8089
// @BasePath /
// @schemes http
