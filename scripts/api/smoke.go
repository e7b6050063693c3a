// Minimal end-to-end smoke test for the GuardLink API. Expects a seeded
// shared-custody family (see cmd/create-family).
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8080/v1")
	emailA   = getenv("GUARDIAN_A", "alex@example.com")
	emailB   = getenv("GUARDIAN_B", "bailey@example.com")
	password = getenv("GUARDIAN_PW", "changeme-now")
	childID  = getenv("CHILD_ID", "")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	if childID == "" {
		log.Fatal("CHILD_ID is required")
	}

	tokA := login(emailA)
	tokB := login(emailB)

	// Emergency increase: applies immediately, B disputes it.
	emergency := createProposal(tokA, "monitoring_interval", 15)
	expectStatus(emergency, "auto_applied")
	disputed := dispute(tokB, emergency["id"].(string))
	expectStatus(disputed, "disputed")

	// Protection decrease: pending, B approves into cooling, A cancels.
	decrease := createProposal(tokA, "screen_time_daily", 240)
	expectStatus(decrease, "pending")
	cooled := respond(tokB, decrease["id"].(string), "approve")
	expectStatus(cooled, "cooling_in_progress")
	cancelled := cancelCooling(tokA, decrease["id"].(string))
	expectStatus(cancelled, "cooling_cancelled")

	fmt.Println("✓ all endpoints passed")
}

func login(email string) string {
	var resp struct{ Token string }
	doJSON("POST", "/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, "", &resp, http.StatusOK)
	if resp.Token == "" {
		log.Fatalf("login %s: empty token", email)
	}
	return resp.Token
}

func createProposal(tok, settingType string, value int64) map[string]any {
	var resp map[string]any
	doJSON("POST", "/proposals", map[string]any{
		"childId":       childID,
		"settingType":   settingType,
		"proposedValue": value,
	}, tok, &resp, http.StatusCreated)
	return resp
}

func respond(tok, id, action string) map[string]any {
	var resp map[string]any
	doJSON("POST", "/proposals/"+id+"/respond", map[string]any{
		"action": action,
	}, tok, &resp, http.StatusOK)
	return resp
}

func dispute(tok, id string) map[string]any {
	var resp map[string]any
	doJSON("POST", "/proposals/"+id+"/dispute", map[string]any{
		"reason": "smoke test dispute",
	}, tok, &resp, http.StatusOK)
	return resp
}

func cancelCooling(tok, id string) map[string]any {
	var resp map[string]any
	doJSON("POST", "/proposals/"+id+"/cooling/cancel", nil, tok, &resp, http.StatusOK)
	return resp
}

func expectStatus(p map[string]any, want string) {
	if p["status"] != want {
		log.Fatalf("proposal %v: want status %s got %v", p["id"], want, p["status"])
	}
}

func doJSON(method, path string, body any, token string, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
