package integration

import (
	"net/http"
	"testing"
)

func TestTradingFlow_BuySellRoundTrip(t *testing.T) {
	app := setupApp(t)
	token, _ := app.signInUser(t, "trader@test.com")

	// Step 1: First balance check creates the portfolio at the free tier.
	rec := app.request("GET", "/api/v1/portfolio/balance", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["cash_balance"] != "1000000" {
		t.Fatalf("expected starting balance 1000000, got %v", result["cash_balance"])
	}

	// Step 2: Buy 100 shares at 50.
	rec = app.request("POST", "/api/v1/portfolio/buy",
		`{"symbol":"XCORP","quantity":100,"price":50}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("buy failed: %d %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	portfolio := result["portfolio"].(map[string]interface{})
	if portfolio["cash_balance"] != "995000" {
		t.Errorf("expected balance 995000 after buy, got %v", portfolio["cash_balance"])
	}
	holdings := portfolio["holdings"].([]interface{})
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	holding := holdings[0].(map[string]interface{})
	if holding["quantity"].(float64) != 100 || holding["avg_price"] != "50" {
		t.Errorf("unexpected holding: %v", holding)
	}

	// Step 3: Sell 40 shares at 60; the average price must not move.
	rec = app.request("POST", "/api/v1/portfolio/sell",
		`{"symbol":"XCORP","quantity":40,"price":60}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("sell failed: %d %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	portfolio = result["portfolio"].(map[string]interface{})
	if portfolio["cash_balance"] != "997400" {
		t.Errorf("expected balance 997400 after partial sale, got %v", portfolio["cash_balance"])
	}
	holding = portfolio["holdings"].([]interface{})[0].(map[string]interface{})
	if holding["quantity"].(float64) != 60 || holding["avg_price"] != "50" {
		t.Errorf("unexpected holding after partial sale: %v", holding)
	}

	// Step 4: Sell the remaining 60 at 55; the holding disappears.
	rec = app.request("POST", "/api/v1/portfolio/sell",
		`{"symbol":"XCORP","quantity":60,"price":55}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("final sell failed: %d %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	if result["holding_removed"] != true {
		t.Error("expected holding_removed true")
	}
	portfolio = result["portfolio"].(map[string]interface{})
	if portfolio["cash_balance"] != "1000700" {
		t.Errorf("expected final balance 1000700, got %v", portfolio["cash_balance"])
	}

	// Step 5: History shows all three trades, newest first.
	rec = app.request("GET", "/api/v1/portfolio/transactions", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	txResult := parseJSON(t, rec)
	if txResult["total_items"].(float64) != 3 {
		t.Fatalf("expected 3 transactions, got %v", txResult["total_items"])
	}
	first := txResult["data"].([]interface{})[0].(map[string]interface{})
	if first["type"] != "sell" || first["quantity"].(float64) != 60 {
		t.Errorf("expected newest transaction to be the final sale, got %v", first)
	}
}

func TestTradingFlow_OversellRejected(t *testing.T) {
	app := setupApp(t)
	token, _ := app.signInUser(t, "oversell@test.com")

	rec := app.request("POST", "/api/v1/portfolio/buy",
		`{"symbol":"AAPL","quantity":10,"price":100}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("buy failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/portfolio/sell",
		`{"symbol":"AAPL","quantity":20,"price":100}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	// State is untouched by the rejected sale.
	rec = app.request("GET", "/api/v1/portfolio/balance", "", token)
	result := parseJSON(t, rec)
	if result["cash_balance"] != "999000" {
		t.Errorf("expected balance 999000, got %v", result["cash_balance"])
	}
}

func TestTradingFlow_ResetPreservesHistory(t *testing.T) {
	app := setupApp(t)
	token, _ := app.signInUser(t, "reset@test.com")

	rec := app.request("POST", "/api/v1/portfolio/buy",
		`{"symbol":"MSFT","quantity":50,"price":200}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("buy failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/portfolio/reset", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	portfolio := result["portfolio"].(map[string]interface{})
	if portfolio["cash_balance"] != "1000000" {
		t.Errorf("expected reset balance 1000000, got %v", portfolio["cash_balance"])
	}
	if len(portfolio["holdings"].([]interface{})) != 0 {
		t.Error("expected no holdings after reset")
	}

	rec = app.request("GET", "/api/v1/portfolio/transactions", "", token)
	txResult := parseJSON(t, rec)
	if txResult["total_items"].(float64) != 1 {
		t.Errorf("expected transaction history to survive reset, got %v", txResult["total_items"])
	}
}

func TestTradingFlow_RequiresAuth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/portfolio/balance", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = app.request("POST", "/api/v1/portfolio/buy",
		`{"symbol":"AAPL","quantity":1,"price":100}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
