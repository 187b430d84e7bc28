package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/suivi-academique-api/internal/models"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
)

type setChecker struct {
	taken map[string]bool
	calls int
	err   error
}

func (c *setChecker) ExistsByCode(ctx context.Context, code string) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return c.taken[code], nil
}

func fixedGenerator(checker staffCodeChecker, attempts int, draws ...int) *StaffCodeGenerator {
	g := NewStaffCodeGenerator(checker, attempts)
	g.now = func() time.Time { return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) }
	i := 0
	g.digits = func() (int, error) {
		n := draws[i%len(draws)]
		i++
		return n, nil
	}
	return g
}

func TestStaffCodeGeneratorFormatPerRole(t *testing.T) {
	cases := map[models.StaffRole]string{
		models.RoleTeacher:       "ENS202500042",
		models.RoleAcademicLead:  "RA202500042",
		models.RolePersonnelLead: "RP202500042",
	}
	for role, want := range cases {
		code, err := fixedGenerator(&setChecker{}, 3, 42).Generate(context.Background(), role)
		require.NoError(t, err)
		assert.Equal(t, want, code)
	}
}

func TestStaffCodeGeneratorRetriesOnCollision(t *testing.T) {
	checker := &setChecker{taken: map[string]bool{"ENS202511111": true, "ENS202522222": true}}
	code, err := fixedGenerator(checker, 5, 11111, 22222, 33333).Generate(context.Background(), models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, "ENS202533333", code)
	assert.Equal(t, 3, checker.calls)
}

func TestStaffCodeGeneratorGivesUpAfterMaxAttempts(t *testing.T) {
	checker := &setChecker{taken: map[string]bool{"RA202500007": true}}
	_, err := fixedGenerator(checker, 4, 7).Generate(context.Background(), models.RoleAcademicLead)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 4, checker.calls)
}

func TestStaffCodeGeneratorUnknownRoleAndStoreError(t *testing.T) {
	_, err := fixedGenerator(&setChecker{}, 2, 1).Generate(context.Background(), "JANITOR")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = fixedGenerator(&setChecker{err: errors.New("db down")}, 2, 1).Generate(context.Background(), models.RoleTeacher)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestStaffCodeGeneratorRandomDigits(t *testing.T) {
	code, err := NewStaffCodeGenerator(&setChecker{}, 0).Generate(context.Background(), models.RoleTeacher)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ENS\d{4}\d{5}$`), code)
}
