// cmd/main.go
package main

import (
	"go-contacts-api/app"
)

// @title           Go-Contacts API
// @version         1.0
// @description     Contact book backend with token-based authentication.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
