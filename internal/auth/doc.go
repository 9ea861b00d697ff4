// Package auth resolves the reader behind each request.
//
// Two modes are supported:
//   - "none": single-reader install (default). A default account is created at
//     startup and every request acts as it.
//   - "local": accounts with email and password, scs sessions and CSRF-protected
//     forms for register, login and logout.
//
// # Configuration
//
//	AUTH_MODE=none|local
//	AUTH_SESSION_SECRET=<hex>     # CSRF key; generated when empty
//	AUTH_SESSION_LIFETIME=720h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//
// # Usage
//
//	svc := auth.NewService(users.NewRepository(db), cfg.Auth, defaults, log)
//	mw := auth.NewMiddleware(svc, sessions, cfg.Auth, defaultUser)
//	router.Use(sessions.SessionLoadSave(), mw.Handler())
//
// Handlers read the reader with auth.GetUser(c) or auth.GetUserID(c).
package auth
