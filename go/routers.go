package bookstoreserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userdomain "github.com/hamrobooks/bookstore-api/internal/domains/users/domain"
	usersports "github.com/hamrobooks/bookstore-api/internal/domains/users/ports"
)

// ApiHandleFunctions groups the bounded context handler sets plus the users
// service the auth middleware resolves tokens against.
type ApiHandleFunctions struct {
	BooksAPI  BooksAPI
	OrdersAPI OrdersAPI
	UsersAPI  UsersAPI
	Auth      usersports.Service
}

// NewRouter returns a gin engine with all API routes registered.
func NewRouter(handlers ApiHandleFunctions) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := RequireAuth(handlers.Auth)
	buyerOnly := RequireRole(userdomain.RoleBuyer)
	adminOnly := RequireRole(userdomain.RoleAdmin)

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", handlers.UsersAPI.Signup)
	auth.POST("/login", handlers.UsersAPI.Login)
	auth.POST("/logout", authed, handlers.UsersAPI.Logout)
	auth.GET("/profile", authed, handlers.UsersAPI.GetProfile)

	books := api.Group("/books")
	books.GET("", handlers.BooksAPI.ListBooks)
	books.GET("/:bookId", handlers.BooksAPI.GetBookById)
	books.POST("", authed, adminOnly, handlers.BooksAPI.CreateBook)
	books.PUT("/:bookId", authed, adminOnly, handlers.BooksAPI.UpdateBook)
	books.DELETE("/:bookId", authed, adminOnly, handlers.BooksAPI.DeleteBook)

	orders := api.Group("/orders")
	orders.POST("", authed, buyerOnly, handlers.OrdersAPI.CreateOrder)
	orders.GET("/my-orders", authed, buyerOnly, handlers.OrdersAPI.GetMyOrders)
	// The provider redirect carries no session token, so settlement is public.
	orders.POST("/verify-payment", handlers.OrdersAPI.VerifyPayment)
	orders.GET("", authed, adminOnly, handlers.OrdersAPI.GetAllOrders)
	orders.GET("/:orderId", authed, adminOnly, handlers.OrdersAPI.GetOrderById)
	orders.PUT("/:orderId/status", authed, adminOnly, handlers.OrdersAPI.UpdateOrderStatus)

	users := api.Group("/users", authed, adminOnly)
	users.GET("", handlers.UsersAPI.GetAllUsers)
	users.GET("/:userId", handlers.UsersAPI.GetUserById)
	users.PUT("/:userId", handlers.UsersAPI.UpdateUser)
	users.DELETE("/:userId", handlers.UsersAPI.DeleteUser)

	return router
}
