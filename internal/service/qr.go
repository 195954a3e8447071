package service

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var bankBinPattern = regexp.MustCompile(`^\d{6}$`)

type BankAccount struct {
	Bin         string
	AccountNo   string
	AccountName string
}

// QRBuilder renders VietQR image URLs for a fixed receiving account.
type QRBuilder struct {
	account  BankAccount
	baseURL  string
	template string
}

func NewQRBuilder(account BankAccount, baseURL, template string) (*QRBuilder, error) {
	var errs []error
	if !bankBinPattern.MatchString(account.Bin) {
		errs = append(errs, fmt.Errorf("bank bin must be 6 digits, got %q", account.Bin))
	}
	if strings.TrimSpace(account.AccountNo) == "" {
		errs = append(errs, errors.New("bank account number is required"))
	}
	if strings.TrimSpace(account.AccountName) == "" {
		errs = append(errs, errors.New("bank account name is required"))
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid QR base url %q", baseURL))
	}
	if template == "" {
		errs = append(errs, errors.New("QR template is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &QRBuilder{
		account:  account,
		baseURL:  strings.TrimRight(baseURL, "/"),
		template: template,
	}, nil
}

// TransferDescription is the text the payer puts in the bank transfer.
func TransferDescription(orderCode, uid string) string {
	return fmt.Sprintf("%s - Deposit for UID %s", orderCode, uid)
}

func (b *QRBuilder) Build(amount decimal.Decimal, orderCode, uid string) string {
	q := url.Values{}
	q.Set("amount", amount.String())
	q.Set("addInfo", TransferDescription(orderCode, uid))
	q.Set("accountName", b.account.AccountName)

	path := fmt.Sprintf("%s-%s-%s.png",
		url.PathEscape(b.account.Bin),
		url.PathEscape(b.account.AccountNo),
		url.PathEscape(b.template),
	)
	return b.baseURL + "/" + path + "?" + q.Encode()
}
