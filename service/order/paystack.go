package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const paystackBaseURL = "https://api.paystack.co"

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type paystackVerifyResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// initializePayment creates a Paystack checkout session. Amounts are
// sent in the minor unit (pesewas).
func initializePayment(email, reference string, amount float64) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"email":     email,
		"amount":    int64(amount * 100),
		"reference": reference,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", paystackBaseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv("PAYSTACK_SECRET_KEY"))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("connecting to Paystack: %v", err)
	}
	defer resp.Body.Close()

	var initResp paystackInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return "", fmt.Errorf("parsing Paystack response: %v", err)
	}
	if !initResp.Status {
		return "", fmt.Errorf("paystack: %s", initResp.Message)
	}
	return initResp.Data.AuthorizationURL, nil
}

// verifyPayment checks a transaction reference against Paystack and
// reports whether the charge succeeded.
func verifyPayment(reference string) (bool, error) {
	req, err := http.NewRequest("GET", paystackBaseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv("PAYSTACK_SECRET_KEY"))

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("connecting to Paystack: %v", err)
	}
	defer resp.Body.Close()

	var verifyResp paystackVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return false, fmt.Errorf("parsing Paystack response: %v", err)
	}
	return verifyResp.Status && verifyResp.Data.Status == "success", nil
}
