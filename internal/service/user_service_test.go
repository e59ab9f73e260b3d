package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inkwell-backend/internal/dto"
	"inkwell-backend/internal/model"
	"inkwell-backend/internal/utils"
)

func TestSignupValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		form dto.SignupForm
		want error
	}{
		{"short fullname", dto.SignupForm{FullName: "ab", Email: "a@b.com", Password: "Passw0rd"}, ErrFullNameTooShort},
		{"bad email", dto.SignupForm{FullName: "alice", Email: "not-an-email", Password: "Passw0rd"}, ErrInvalidEmail},
		{"too short password", dto.SignupForm{FullName: "alice", Email: "a@b.com", Password: "Ab1"}, ErrWeakPassword},
		{"no digit", dto.SignupForm{FullName: "alice", Email: "a@b.com", Password: "Password"}, ErrWeakPassword},
		{"no upper", dto.SignupForm{FullName: "alice", Email: "a@b.com", Password: "passw0rd"}, ErrWeakPassword},
	}
	for _, tc := range cases {
		if _, err := svc.Signup(ctx, tc.form); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected signups must not create users, count = %d", count)
	}
}

func TestSigninRejectsUnknownAndWrongPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	ctx := context.Background()

	if _, err := svc.Signin(ctx, dto.SigninForm{Email: "noone@example.com", Password: "Passw0rd"}); !errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("unknown email: got %v", err)
	}

	hashed, err := utils.Encode("Passw0rd")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	user := &model.User{Email: "alice@example.com", Username: "alice", FullName: "alice", Password: hashed}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Signin(ctx, dto.SigninForm{Email: "alice@example.com", Password: "Wrong0pass"}); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("wrong password: got %v", err)
	}
}

func TestGenerateUsernameDeduplicates(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, nil)
	ctx := context.Background()

	first, err := svc.generateUsername(ctx, "carol@example.com")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first != "carol" {
		t.Fatalf("first = %q, want carol", first)
	}
	if err := db.Create(&model.User{Email: "carol@example.com", Username: first, FullName: "carol", Password: "x"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	second, err := svc.generateUsername(ctx, "carol@other.com")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !strings.HasPrefix(second, "carol") || len(second) != len("carol")+5 {
		t.Fatalf("second = %q, want carol + 5 char suffix", second)
	}
}
