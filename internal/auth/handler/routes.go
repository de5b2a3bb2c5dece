package handler

import "github.com/gin-gonic/gin"

// Routes mounts the auth and user endpoints on the given router group.
func Routes(r gin.IRouter, auth *AuthHandler, users *UserHandler) {
	g := r.Group("/auth")
	{
		g.POST("/register", auth.Register)
		g.POST("/login", auth.Login)
		g.POST("/refresh", auth.Refresh)
		g.POST("/logout", auth.Logout)
		g.POST("/change-password", auth.ChangePassword)
		g.GET("/me", auth.Me)
	}

	u := r.Group("/users")
	{
		u.GET("/me", users.Me)
		u.PUT("/me", users.UpdateMe)
		u.GET("/me/permissions", users.MyPermissions)
		u.PUT("/:id/roles", users.ReplaceRoles)
	}

	r.PUT("/roles/:name/permissions", users.ReplaceRolePermissions)
}
