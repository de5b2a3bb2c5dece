package handler

import "github.com/gin-gonic/gin"

// Routes mounts the student service endpoints on the given router.
func Routes(r gin.IRouter, students *StudentHandler, guardians *GuardianHandler, enrollments *EnrollmentHandler, attendance *AttendanceHandler) {
	s := r.Group("/students")
	s.GET("", students.List)
	s.GET("/:id", students.Get)
	s.PUT("/:id", students.Update)
	s.GET("/:id/guardians", guardians.List)
	s.POST("/:id/guardians", guardians.Add)
	s.PUT("/:id/guardians/:guardianId", guardians.Update)
	s.DELETE("/:id/guardians/:guardianId", guardians.Remove)

	e := r.Group("/enrollments")
	e.POST("", enrollments.Enroll)
	e.DELETE("/:enrollmentId/students/:studentId", enrollments.Unenroll)
	e.GET("/students/:studentId", enrollments.ListByStudent)

	r.GET("/courses/available", enrollments.AvailableCourses)
	r.GET("/subjects", enrollments.Subjects)

	a := r.Group("/attendance")
	a.POST("", attendance.Record)
	a.GET("/:id", attendance.Get)
	a.PUT("/:id", attendance.Update)
	a.DELETE("/:id", attendance.Delete)
	a.GET("/students/:studentId", attendance.ListByStudent)
	a.GET("/students/:studentId/courses/:courseId/statistics", attendance.Statistics)
	a.GET("/courses/:courseId", attendance.ListByCourseAndDate)
}
