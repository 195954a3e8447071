package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"meostore/internal/service"
)

type transaction struct {
	ID                  int64   `json:"id"`
	Reference           string  `json:"reference"`
	Description         string  `json:"description"`
	Amount              float64 `json:"amount"`
	AccountNumber       string  `json:"accountNumber"`
	BankName            string  `json:"bankName"`
	TransactionDateTime string  `json:"transactionDateTime"`
}

type webhookPayload struct {
	Error int         `json:"error"`
	Data  transaction `json:"data"`
}

func main() {
	_ = godotenv.Load()

	url := flag.String("url", "http://localhost:3000/casso-webhook", "Webhook URL")
	secret := flag.String("secret", os.Getenv("CASSO_SECRET"), "Webhook secret")
	desc := flag.String("desc", "", "Transfer description, e.g. \"MEOSTORE-123456 - Deposit for UID 42\"")
	amount := flag.Float64("amount", 100000, "Amount")
	txID := flag.Int64("tx-id", time.Now().Unix(), "Transaction id")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and CASSO_SECRET not set\n")
		os.Exit(1)
	}
	if *desc == "" {
		fmt.Fprintf(os.Stderr, "Error: -desc is required\n")
		os.Exit(1)
	}

	body, err := json.Marshal(webhookPayload{
		Data: transaction{
			ID:                  *txID,
			Reference:           "MOCK" + strconv.FormatInt(*txID, 10),
			Description:         *desc,
			Amount:              *amount,
			AccountNumber:       "0014100027536007",
			BankName:            "OCB",
			TransactionDateTime: time.Now().Format("2006-01-02 15:04:05"),
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	t := strconv.FormatInt(time.Now().Unix(), 10)
	sigHeader := fmt.Sprintf("t=%s,v1=%s", t, service.ComputeSignature([]byte(*secret), t, body))

	fmt.Printf("%s: %s\n", service.SignatureHeader, sigHeader)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(service.SignatureHeader, sigHeader)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
