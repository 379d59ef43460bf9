package router

import (
	"go-contacts-api/handler"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "go-contacts-api/docs"
)

// Deps bundles everything the route map needs.
type Deps struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Contacts  *handler.ContactHandler
	Health    *handler.HealthHandler
	AuthMW    *handler.AuthMiddleware
	MeLimiter *handler.RateLimiter
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", d.Health.Live)
	mux.HandleFunc("GET /health/db", d.Health.Ready)
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	mux.Handle("POST /auth/register", handler.ErrorHandlingMiddleware(d.Auth.Register))
	mux.Handle("POST /auth/login", handler.ErrorHandlingMiddleware(d.Auth.Login))
	mux.Handle("POST /auth/refresh", handler.ErrorHandlingMiddleware(d.Auth.Refresh))
	mux.Handle("POST /auth/logout",
		d.AuthMW.Handle(handler.ErrorHandlingMiddleware(d.Auth.Logout)))
	mux.Handle("POST /auth/request-password-reset", handler.ErrorHandlingMiddleware(d.Auth.RequestPasswordReset))
	mux.Handle("POST /auth/reset-password", handler.ErrorHandlingMiddleware(d.Auth.ResetPassword))

	mux.Handle("GET /users/me",
		d.MeLimiter.Handle(d.AuthMW.Handle(handler.ErrorHandlingMiddleware(d.Users.Me))))
	mux.Handle("GET /users/confirm-email", handler.ErrorHandlingMiddleware(d.Users.ConfirmEmail))
	mux.Handle("POST /users/request-email-confirmation", handler.ErrorHandlingMiddleware(d.Users.RequestEmailConfirmation))
	mux.Handle("PATCH /users/avatar",
		d.AuthMW.Handle(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(d.Users.UpdateAvatar))))
	mux.Handle("GET /users/admin",
		d.AuthMW.Handle(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(d.Users.Admin))))

	mux.Handle("POST /contacts", d.AuthMW.Handle(handler.ErrorHandlingMiddleware(d.Contacts.Create)))
	mux.Handle("GET /contacts", d.AuthMW.Handle(handler.ErrorHandlingMiddleware(d.Contacts.List)))
	mux.Handle("GET /contacts/birthdays", d.AuthMW.Handle(handler.ErrorHandlingMiddleware(d.Contacts.UpcomingBirthdays)))
	mux.Handle("GET /contacts/{id}", d.AuthMW.Handle(handler.ErrorHandlingMiddleware(d.Contacts.Get)))
	mux.Handle("PUT /contacts/{id}", d.AuthMW.Handle(handler.ErrorHandlingMiddleware(d.Contacts.Update)))
	mux.Handle("DELETE /contacts/{id}", d.AuthMW.Handle(handler.ErrorHandlingMiddleware(d.Contacts.Delete)))

	return mux
}
