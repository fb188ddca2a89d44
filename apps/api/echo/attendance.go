package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// defaultRateWindowDays bounds the attendance-rate window when the client
// does not pick one.
const defaultRateWindowDays = 30

type attendanceApi struct {
	svc       *attendance.Service
	usrSvc    *user.Service
	schoolSvc *school.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{svc: deps.AttendanceSvc, usrSvc: deps.UserSvc, schoolSvc: deps.SchoolSvc}

	cg := g.Group("/courses/:id/attendance", jwt)
	cg.POST("", api.mark, staffMiddleware())
	cg.GET("", api.query, staffMiddleware())
	cg.GET("/sessions/:date", api.sessionSummary, staffMiddleware())
	cg.GET("/students/:sid/rate", api.studentRate)
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	data.CourseID = ctx.Param("id")
	if err := data.Validate(); err != nil {
		return err
	}

	// only enrolled students can be marked
	enrolled, err := api.schoolSvc.IsEnrolled(ctx.Request().Context(), data.StudentID, data.CourseID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return core.NewValidationError(nil,
			core.FieldError{Field: "student_id", Error: "student is not enrolled in this course"})
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	att, err := api.svc.Mark(ctx.Request().Context(), data, actor)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Attendance{})
	}
	filter.CourseID = ctx.Param("id")

	records, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, records)
}

// sessionSummary serves per-status counts for one course+date session.
func (api *attendanceApi) sessionSummary(ctx echo.Context) error {
	date, err := time.ParseInLocation(attendance.DateLayout, ctx.Param("date"), time.UTC)
	if err != nil {
		return core.NewValidationError(nil,
			core.FieldError{Field: "date", Error: "date must be in 2006-01-02 format"})
	}

	counts, err := api.svc.CourseSessionSummary(ctx.Request().Context(), ctx.Param("id"), date)
	if err != nil {
		return errors.Wrap(err, "summarizing session")
	}

	var total int
	for _, n := range counts {
		total += n
	}
	return ctx.JSON(http.StatusOK, SessionSummaryResponse{
		CourseID: ctx.Param("id"),
		Date:     date.Format(attendance.DateLayout),
		Counts:   counts,
		Total:    total,
	})
}

// studentRate serves a student's attendance rate over a trailing window.
// Students may only see their own; staff may see anyone's.
func (api *attendanceApi) studentRate(ctx echo.Context) error {
	studentID := ctx.Param("sid")

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsAdmin || claims.IsTeacher || claims.Subject == studentID) {
		return errHttpForbidden
	}

	windowDays := defaultRateWindowDays
	if raw := ctx.QueryParam("window_days"); raw != "" {
		windowDays, err = strconv.Atoi(raw)
		if err != nil || windowDays <= 0 {
			return core.NewValidationError(nil,
				core.FieldError{Field: "window_days", Error: "window_days must be a positive integer"})
		}
	}

	rate, err := api.svc.StudentCourseRate(ctx.Request().Context(), ctx.Param("id"), studentID, windowDays)
	if err != nil {
		return errors.Wrap(err, "computing attendance rate")
	}
	return ctx.JSON(http.StatusOK, AttendanceRateResponse{
		CourseID:   ctx.Param("id"),
		StudentID:  studentID,
		WindowDays: windowDays,
		Rate:       rate,
	})
}

type (
	SessionSummaryResponse struct {
		CourseID string                    `json:"course_id"`
		Date     string                    `json:"date"`
		Counts   map[attendance.Status]int `json:"counts"`
		Total    int                       `json:"total"`
	}

	AttendanceRateResponse struct {
		CourseID   string  `json:"course_id"`
		StudentID  string  `json:"student_id"`
		WindowDays int     `json:"window_days"`
		Rate       float64 `json:"rate"`
	}
)
