package handler

import "github.com/gin-gonic/gin"

// Routes mounts the public catalog endpoints on the given router.
func Routes(r gin.IRouter, courses *CourseHandler, subjects *SubjectHandler, teachers *TeacherHandler) {
	co := r.Group("/courses")
	co.GET("", courses.List)
	co.POST("", courses.Create)
	co.GET("/:id", courses.Get)
	co.PUT("/:id", courses.Update)
	co.DELETE("/:id", courses.Delete)
	co.GET("/:id/schedules", courses.ListSchedules)
	co.POST("/:id/schedules", courses.AddSchedule)
	co.PUT("/:id/schedules/:scheduleId", courses.UpdateSchedule)
	co.DELETE("/:id/schedules/:scheduleId", courses.RemoveSchedule)

	su := r.Group("/subjects")
	su.GET("", subjects.List)
	su.POST("", subjects.Create)
	su.GET("/:id", subjects.Get)
	su.PUT("/:id", subjects.Update)
	su.DELETE("/:id", subjects.Delete)

	te := r.Group("/teachers")
	te.GET("", teachers.List)
	te.GET("/:id", teachers.Get)
	te.PUT("/:id", teachers.Update)
}

// InternalRoutes mounts the lookup API at the root, outside the public prefix.
func InternalRoutes(r gin.IRouter, internal *InternalHandler) {
	in := r.Group("/internal")
	in.GET("/courses", internal.ListCourses)
	in.GET("/courses/:id", internal.GetCourse)
	in.GET("/subjects", internal.ListSubjects)
}
