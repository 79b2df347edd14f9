package api_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

type tokenPayload struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

type patientPayload struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

func TestPatientSignupAndLogin(t *testing.T) {
	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	password := "cabbages-and-kings"

	register := makeRequest(t, http.MethodPost, "/auth/register", map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
		"patient": map[string]interface{}{
			"full_name": "Api Test Patient",
			"gender":    "Other",
			"phone":     "0300-0000000",
		},
	}, "")
	if !register.Success {
		t.Fatalf("register failed: %+v", register.Error)
	}

	login := makeRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	if !login.Success {
		t.Fatalf("login failed: %+v", login.Error)
	}

	var token tokenPayload
	login.decodeData(t, &token)
	if token.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if token.User.Role != "Patient" {
		t.Fatalf("expected Patient role, got %q", token.User.Role)
	}

	me := makeRequest(t, http.MethodGet, "/patients/me", nil, token.AccessToken)
	if !me.Success {
		t.Fatalf("own record lookup failed: %+v", me.Error)
	}
	var patient patientPayload
	me.decodeData(t, &patient)
	if patient.FullName != "Api Test Patient" {
		t.Fatalf("unexpected patient record: %+v", patient)
	}

	// Patients cannot reach the admin surface.
	forbidden := makeRequest(t, http.MethodGet, "/users", nil, token.AccessToken)
	if forbidden.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 on /users, got %d", forbidden.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	resp := makeRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "no_such_user",
		"password": "irrelevant-password",
	}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	for _, path := range []string{"/patients", "/appointments", "/bills", "/medications"} {
		resp := makeRequest(t, http.MethodGet, path, nil, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 on %s, got %d", path, resp.StatusCode)
		}
	}
}
