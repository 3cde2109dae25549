// Package main library lending API.
//
// @title           Library Lending API
// @version         1.0
// @description     Library lending service (books, users, loans, borrow history).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"booklending/app/echoServer"
	authctrl "booklending/app/echoServer/controller/auth"
	bookctrl "booklending/app/echoServer/controller/book"
	borrowctrl "booklending/app/echoServer/controller/borrow"
	historyctrl "booklending/app/echoServer/controller/history"
	userctrl "booklending/app/echoServer/controller/user"
	"booklending/app/echoServer/validation"
	"booklending/config"
	bookrepo "booklending/repository/book"
	historyrepo "booklending/repository/history"
	loanrepo "booklending/repository/loan"
	userrepo "booklending/repository/user"
	authsvc "booklending/service/auth"
	booksvc "booklending/service/book"
	borrowsvc "booklending/service/borrow"
	historysvc "booklending/service/history"
	usersvc "booklending/service/user"
	"booklending/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// database
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	lr := loanrepo.New(db)
	hr := historyrepo.New(db)

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br, lr)
	us := usersvc.New(ur, lr)
	rs := borrowsvc.New(db.Pool, lr, hr, br, ur)
	hs := historysvc.New(hr)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}
	borrowC := &borrowctrl.Controller{Svc: rs, V: v, Log: log}
	historyC := &historyctrl.Controller{Svc: hs, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:    authC,
		Book:    bookC,
		User:    userC,
		Borrow:  borrowC,
		History: historyC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
