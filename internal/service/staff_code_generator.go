package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/noah-isme/suivi-academique-api/internal/models"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
)

const defaultStaffCodeAttempts = 20

type staffCodeChecker interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// StaffCodeGenerator issues codes of the form PREFIX + YEAR + 5 random digits,
// e.g. ENS202512345, retrying on collision up to a fixed number of attempts.
type StaffCodeGenerator struct {
	checker     staffCodeChecker
	maxAttempts int
	now         func() time.Time
	digits      func() (int, error)
}

// NewStaffCodeGenerator builds a generator backed by the staff store.
func NewStaffCodeGenerator(checker staffCodeChecker, maxAttempts int) *StaffCodeGenerator {
	if maxAttempts <= 0 {
		maxAttempts = defaultStaffCodeAttempts
	}
	return &StaffCodeGenerator{
		checker:     checker,
		maxAttempts: maxAttempts,
		now:         time.Now,
		digits:      randomDigits,
	}
}

// Generate returns an unused code for the role.
func (g *StaffCodeGenerator) Generate(ctx context.Context, role models.StaffRole) (string, error) {
	prefix := role.CodePrefix()
	if prefix == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", role))
	}
	year := g.now().Year()

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		n, err := g.digits()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to draw staff code")
		}
		code := fmt.Sprintf("%s%d%05d", prefix, year, n)
		taken, err := g.checker.ExistsByCode(ctx, code)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check staff code")
		}
		if !taken {
			return code, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("could not allocate a free %s code after %d attempts", prefix, g.maxAttempts))
}

func randomDigits() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
