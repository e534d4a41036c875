// Package main is the entry point for the OCCI server.
//
//	@title						OCCI Resource Server
//	@version					1.0
//	@description				Category-driven cloud resource server with kinds, mixins, actions and pluggable backends.
//	@termsOfService				https://github.com/artpar/occi
//
//	@contact.name				OCCI Server Support
//	@contact.url				https://github.com/artpar/occi/issues
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.basic	BasicAuth
//	@description				Optional HTTP basic auth guarding the /v1 routes
package main

func main() {
	Execute()
}
