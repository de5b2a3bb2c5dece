package handler

import "github.com/gin-gonic/gin"

// Routes mounts the analytics endpoints on the given router.
func Routes(r gin.IRouter, analytics *AnalyticsHandler, dashboard *DashboardHandler) {
	a := r.Group("/analytics")
	a.GET("/enrollments", analytics.ListEnrollments)
	a.GET("/attendance", analytics.ListAttendance)
	a.GET("/attendance/export", analytics.ExportAttendance)
	a.GET("/students/:studentId", analytics.GetStudent)

	r.GET("/dashboard/summary", dashboard.Summary)
}
