package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-enrollment/internal/model"
	"github.com/iliyamo/course-enrollment/internal/service"
)

func TestCreateCourseDefaults(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	c, err := fx.courses.Create(ctx, model.Course{
		Name:          "  Operating Systems ",
		Instructor:    "Ken",
		StartDate:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		Fee:           decimal.RequireFromString("300"),
		EnrolledCount: 17,
	})
	require.NoError(t, err)
	assert.Equal(t, "Operating Systems", c.Name)
	assert.Equal(t, model.DefaultCourseCapacity, c.Capacity)
	assert.Zero(t, c.EnrolledCount)
}

func TestCreateCourseValidation(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	base := model.Course{
		Name:       "Algorithms",
		Instructor: "Donald",
		StartDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		Fee:        decimal.RequireFromString("10"),
		Capacity:   10,
	}
	tests := []struct {
		name   string
		mutate func(c *model.Course)
	}{
		{"missing name", func(c *model.Course) { c.Name = " " }},
		{"missing instructor", func(c *model.Course) { c.Instructor = "" }},
		{"end before start", func(c *model.Course) { c.EndDate = c.StartDate.AddDate(0, 0, -1) }},
		{"negative fee", func(c *model.Course) { c.Fee = decimal.RequireFromString("-1") }},
		{"negative capacity", func(c *model.Course) { c.Capacity = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			_, err := fx.courses.Create(ctx, c)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}

func TestUpdateCourseCapacityGuard(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	enroll := service.NewEnrollmentService(fx.store)

	c, err := fx.course(ctx, "Distributed Systems", 3, "99")
	require.NoError(t, err)
	for _, email := range []string{"x@example.com", "y@example.com"} {
		st, err := fx.student(ctx, email)
		require.NoError(t, err)
		_, err = enroll.Enroll(ctx, st.ID, c.ID)
		require.NoError(t, err)
	}

	c.Capacity = 1
	_, err = fx.courses.Update(ctx, c)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	c.Capacity = 2
	c.Name = "Distributed Systems II"
	c.EnrolledCount = 0
	out, err := fx.courses.Update(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Capacity)
	assert.Equal(t, 2, out.EnrolledCount)
	assert.False(t, out.IsAvailable())

	avail, err := fx.courses.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, avail)

	_, err = fx.courses.Update(ctx, model.Course{ID: 777, Name: "n", Instructor: "i",
		StartDate: c.StartDate, EndDate: c.EndDate, Capacity: 1})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteCourse(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	enroll := service.NewEnrollmentService(fx.store)
	c, err := fx.course(ctx, "Graphics", 3, "20")
	require.NoError(t, err)
	st, err := fx.student(ctx, "gfx@example.com")
	require.NoError(t, err)
	_, err = enroll.Enroll(ctx, st.ID, c.ID)
	require.NoError(t, err)

	require.NoError(t, fx.courses.Delete(ctx, c.ID))
	_, err = fx.courses.Get(ctx, c.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	left, err := enroll.List(ctx, model.EnrollmentFilter{StudentID: st.ID})
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, fx.courses.Delete(ctx, c.ID), service.ErrNotFound)
}
