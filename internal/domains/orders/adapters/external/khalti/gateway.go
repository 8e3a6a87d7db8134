package khalti

import (
	"context"
	"errors"
	"fmt"

	khalticlient "github.com/hamrobooks/bookstore-api/internal/clients/http/khalti"
	"github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
)

var _ ports.PaymentGateway = (*Gateway)(nil)

// Gateway adapts the Khalti ePayment client to the orders payment gateway
// port. Provider faults are wrapped in ports.ErrGateway so the application
// layer can tell them apart from local errors.
type Gateway struct {
	client *khalticlient.Client
}

func NewGateway(client *khalticlient.Client) (*Gateway, error) {
	if client == nil {
		return nil, errors.New("khalti client is required")
	}
	return &Gateway{client: client}, nil
}

func (g *Gateway) Initiate(ctx context.Context, req ports.InitiateRequest) (*ports.InitiateResult, error) {
	resp, err := g.client.Initiate(ctx, khalticlient.InitiateRequest{
		ReturnURL:         req.ReturnURL,
		Amount:            req.Amount,
		PurchaseOrderID:   req.OrderID,
		PurchaseOrderName: req.OrderName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: initiate: %w", ports.ErrGateway, err)
	}
	return &ports.InitiateResult{
		TransactionRef: resp.Pidx,
		PaymentURL:     resp.PaymentURL,
	}, nil
}

func (g *Gateway) Verify(ctx context.Context, transactionRef string) (*ports.VerifyResult, error) {
	resp, err := g.client.Lookup(ctx, transactionRef)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup: %w", ports.ErrGateway, err)
	}
	return &ports.VerifyResult{
		State:      ports.VerifyState(resp.Status),
		AmountPaid: resp.TotalAmount,
	}, nil
}
