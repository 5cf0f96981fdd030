package engine

import (
	"errors"
	"fmt"
	"strings"
)

type PaymentMethod int

const (
	PaymentMethodUnknown PaymentMethod = iota
	PaymentMethodCash
	PaymentMethodGCash
	PaymentMethodCard
	PaymentMethodPayMaya
	PaymentMethodBankTransfer
)

var ErrUnknownPaymentMethod = errors.New("unknown payment method")

var paymentMethodNames = map[PaymentMethod]string{
	PaymentMethodCash:         "CASH",
	PaymentMethodGCash:        "GCASH",
	PaymentMethodCard:         "CARD",
	PaymentMethodPayMaya:      "PAYMAYA",
	PaymentMethodBankTransfer: "BANK_TRANSFER",
}

// PaymentMethods lists the accepted methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodGCash,
		PaymentMethodCard,
		PaymentMethodPayMaya,
		PaymentMethodBankTransfer,
	}
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for method, name := range paymentMethodNames {
		if name == normalized {
			return method, nil
		}
	}
	return PaymentMethodUnknown, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, s)
}

func (p PaymentMethod) String() string {
	if name, ok := paymentMethodNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

func (p PaymentMethod) Valid() bool {
	_, ok := paymentMethodNames[p]
	return ok
}

// IsCash reports whether change is computed from a tendered amount. Every
// other known method is settled by an external reference.
func (p PaymentMethod) IsCash() bool {
	return p == PaymentMethodCash
}

func (p PaymentMethod) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPaymentMethod, int(p))
	}
	return []byte(p.String()), nil
}

func (p *PaymentMethod) UnmarshalText(text []byte) error {
	method, err := ParsePaymentMethod(string(text))
	if err != nil {
		return err
	}
	*p = method
	return nil
}
