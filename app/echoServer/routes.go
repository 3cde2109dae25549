package echoServer

import (
	"booklending/app/echoServer/controller/auth"
	"booklending/app/echoServer/controller/book"
	"booklending/app/echoServer/controller/borrow"
	"booklending/app/echoServer/controller/history"
	"booklending/app/echoServer/controller/user"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth      *auth.Controller
	Book      *book.Controller
	User      *user.Controller
	Borrow    *borrow.Controller
	History   *history.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	g := e.Group("/v1")
	g.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
	}))

	// Books
	g.GET("/books", c.Book.List)
	g.GET("/books/search", c.Book.Search)
	g.GET("/books/:id", c.Book.Detail)
	// Admin endpoints
	g.POST("/books", c.Book.Create)
	g.PUT("/books/:id", c.Book.Update)
	g.DELETE("/books/:id", c.Book.Delete)

	// Users
	g.GET("/users", c.User.List)
	g.GET("/users/:id", c.User.Detail)
	g.PUT("/users/:id", c.User.Update)
	g.DELETE("/users/:id", c.User.Delete)
	g.GET("/users/:id/loans", c.Borrow.ByUser)
	g.GET("/users/:id/loans/overdue", c.Borrow.OverdueByUser)

	// Borrow lifecycle
	g.POST("/borrows", c.Borrow.Borrow)
	g.POST("/borrows/renew", c.Borrow.Renew)
	g.POST("/borrows/return", c.Borrow.Return)
	g.GET("/borrows", c.Borrow.ListAll)
	g.GET("/borrows/my", c.Borrow.My)
	g.GET("/borrows/my/overdue", c.Borrow.MyOverdue)

	// Audit history
	g.GET("/history/books/:id", c.History.ByBook)
	g.GET("/history/users/:id", c.History.ByUser)
}
