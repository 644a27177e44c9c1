package vote

import (
	"testing"
	"time"

	"zuraaa_list/internal/domain"
)

func TestCheckAllowsEligibleUsers(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	tests := []struct {
		name string
		user domain.User
	}{
		{"never voted", domain.User{ID: "1"}},
		{"cooldown expired", domain.User{ID: "2", Dates: domain.UserDates{NextVote: &past}}},
		{"cooldown exactly now", domain.User{ID: "3", Dates: domain.UserDates{NextVote: &now}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Check(tt.user, now)
			if !decision.Allowed {
				t.Fatalf("expected Allowed, got %+v", decision)
			}
			if decision.Terminate {
				t.Fatalf("expected no session termination, got %+v", decision)
			}
		})
	}
}

func TestCheckDeniesFutureCooldown(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	resume := now.Add(3 * time.Hour)

	decision := Check(domain.User{ID: "1", Dates: domain.UserDates{NextVote: &resume}}, now)
	if decision.Allowed {
		t.Fatalf("expected denial, got %+v", decision)
	}
	if decision.Terminate {
		t.Fatalf("cooldown denial must not terminate the session")
	}
	if !decision.ResumeAt.Equal(resume) {
		t.Fatalf("expected ResumeAt %v, got %v", resume, decision.ResumeAt)
	}
}

func TestCheckDeniesBannedUnconditionally(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	decision := Check(domain.User{ID: "1", Banned: true, Dates: domain.UserDates{NextVote: &past}}, now)
	if decision.Allowed {
		t.Fatalf("expected banned user to be denied")
	}
	if !decision.Terminate {
		t.Fatalf("expected banned denial to request session termination")
	}
}
