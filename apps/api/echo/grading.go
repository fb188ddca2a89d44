package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/grading"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type gradingApi struct {
	svc       *grading.Service
	usrSvc    *user.Service
	schoolSvc *school.Service
}

func registerGradingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := gradingApi{svc: deps.GradingSvc, usrSvc: deps.UserSvc, schoolSvc: deps.SchoolSvc}

	cg := g.Group("/courses/:id", jwt)

	// assessments
	cg.POST("/assessments", api.createAssessment, staffMiddleware())
	cg.GET("/assessments", api.queryAssessments)
	cg.GET("/assessments/:aid", api.retrieveAssessment)
	cg.PUT("/assessments/:aid", api.updateAssessment, staffMiddleware())
	cg.DELETE("/assessments/:aid", api.destroyAssessment, staffMiddleware())

	// grades
	cg.POST("/grades", api.recordGrade, staffMiddleware())
	cg.GET("/gradebook", api.gradebook, staffMiddleware())
	cg.GET("/students/:sid/summary", api.studentSummary)
}

// Handlers

func (api *gradingApi) createAssessment(ctx echo.Context) error {
	courseID := ctx.Param("id")
	if _, err := api.schoolSvc.GetByID(ctx.Request().Context(), courseID); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}

	var data grading.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, err := api.svc.CreateAssessment(ctx.Request().Context(), courseID, data, actor)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *gradingApi) queryAssessments(ctx echo.Context) error {
	filter := grading.AssessmentFilter{CourseID: ctx.Param("id")}
	for _, typ := range ctx.QueryParams()["type"] {
		filter.Types = append(filter.Types, grading.AssessmentType(typ))
	}

	assessments, err := api.svc.QueryAssessments(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	if assessments == nil {
		assessments = []grading.Assessment{}
	}
	return ctx.JSON(http.StatusOK, assessments)
}

// getCourseAssessment looks an assessment up and checks it belongs to the
// course in the URL; cross-course access reads as not found.
func (api *gradingApi) getCourseAssessment(ctx echo.Context) (grading.Assessment, error) {
	a, err := api.svc.GetAssessment(ctx.Request().Context(), ctx.Param("aid"))
	if err != nil {
		if errors.Cause(err) == grading.ErrAssessmentNotFound {
			return grading.Assessment{}, errHttpNotFound
		}
		return grading.Assessment{}, errors.Wrap(err, "finding assessment by ID")
	}
	if a.CourseID != ctx.Param("id") {
		return grading.Assessment{}, errHttpNotFound
	}
	return a, nil
}

func (api *gradingApi) retrieveAssessment(ctx echo.Context) error {
	a, err := api.getCourseAssessment(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *gradingApi) updateAssessment(ctx echo.Context) error {
	a, err := api.getCourseAssessment(ctx)
	if err != nil {
		return err
	}

	var data grading.UpdateAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssessment")
	}
	if err := data.Validate(a); err != nil {
		return err
	}

	a, err = api.svc.UpdateAssessment(ctx.Request().Context(), a.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assessment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *gradingApi) destroyAssessment(ctx echo.Context) error {
	a, err := api.getCourseAssessment(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAssessments(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradingApi) recordGrade(ctx echo.Context) error {
	var data grading.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	// the assessment must belong to the course in the URL
	a, err := api.svc.GetAssessment(ctx.Request().Context(), data.AssessmentID)
	if err != nil {
		if errors.Cause(err) == grading.ErrAssessmentNotFound {
			return core.NewReferenceError("assessment", data.AssessmentID)
		}
		return errors.Wrap(err, "finding assessment by ID")
	}
	if a.CourseID != ctx.Param("id") {
		return core.NewValidationError(nil,
			core.FieldError{Field: "assessment_id", Error: "assessment does not belong to this course"})
	}

	// only enrolled students can be graded
	enrolled, err := api.schoolSvc.IsEnrolled(ctx.Request().Context(), data.StudentID, a.CourseID)
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

	grd, err := api.svc.CreateOrReplaceGrade(ctx.Request().Context(), data, actor)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradingApi) gradebook(ctx echo.Context) error {
	assessments, grades, err := api.svc.CourseGradebook(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "fetching gradebook")
	}
	if assessments == nil {
		assessments = []grading.Assessment{}
	}
	if grades == nil {
		grades = []grading.Grade{}
	}
	return ctx.JSON(http.StatusOK, GradebookResponse{Assessments: assessments, Grades: grades})
}

// studentSummary serves a student's aggregated standing in a course.
// Students may only see their own; staff may see anyone's.
func (api *gradingApi) studentSummary(ctx echo.Context) error {
	studentID := ctx.Param("sid")

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsAdmin || claims.IsTeacher || claims.Subject == studentID) {
		return errHttpForbidden
	}

	var types []grading.AssessmentType
	for _, typ := range ctx.QueryParams()["type"] {
		types = append(types, grading.AssessmentType(typ))
	}

	summary, err := api.svc.StudentCourseSummary(ctx.Request().Context(), ctx.Param("id"), studentID, types...)
	if err != nil {
		return errors.Wrap(err, "summarizing course standing")
	}
	return ctx.JSON(http.StatusOK, summary)
}

type GradebookResponse struct {
	Assessments []grading.Assessment `json:"assessments"`
	Grades      []grading.Grade      `json:"grades"`
}
