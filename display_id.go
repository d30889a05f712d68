package authcore

import (
	"context"
	"errors"
	"fmt"
)

// displayIDMaxRetries bounds the allocate-and-create loop. Concurrent
// signups for the same role can race on the next sequence number; each
// collision re-reads the high-water mark and tries again.
const displayIDMaxRetries = 5

var displayPrefixes = map[Role]string{
	RoleClient:     "CL",
	RoleFreelancer: "FL",
	RoleAgent:      "AG",
	RoleAdmin:      "AD",
	RoleSuperAdmin: "SA",
}

func displayPrefix(role Role) (string, error) {
	p, ok := displayPrefixes[role]
	if !ok {
		return "", ErrRoleInvalid
	}
	return p, nil
}

func formatDisplayID(prefix string, n int) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// createWithDisplayID allocates the next display ID for the user's role
// and persists the record. On a uniqueness collision it re-reads the
// high-water mark and retries up to displayIDMaxRetries times.
func (e *Engine) createWithDisplayID(ctx context.Context, user *UserRecord) error {
	prefix, err := displayPrefix(user.Role)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < displayIDMaxRetries; attempt++ {
		last, err := e.users.LastDisplayNumber(ctx, prefix)
		if err != nil {
			return err
		}
		// Step past numbers already burned by collisions; the high-water
		// mark may lag behind writers we raced against.
		user.DisplayID = formatDisplayID(prefix, last+1+attempt)

		err = e.users.Create(ctx, user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDisplayIDExists) {
			return err
		}
	}

	return ErrDisplayIDExhausted
}

// backfillDisplayID assigns a display ID to a record created before
// allocation existed. The record is persisted via Update with the same
// bounded-retry collision handling as create.
func (e *Engine) backfillDisplayID(ctx context.Context, user *UserRecord) error {
	if user.DisplayID != "" {
		return nil
	}
	prefix, err := displayPrefix(user.Role)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < displayIDMaxRetries; attempt++ {
		last, err := e.users.LastDisplayNumber(ctx, prefix)
		if err != nil {
			return err
		}
		user.DisplayID = formatDisplayID(prefix, last+1+attempt)

		err = e.users.Update(ctx, user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDisplayIDExists) {
			return err
		}
	}

	return ErrDisplayIDExhausted
}
