package reconcile

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/normalize"
)

// CreateMissingOrders crea una orden por cada transacción que no tenga ya una
// orden etiquetada con tagName en la misma fecha y al mismo precio unitario.
// Las órdenes remotas se leen una sola vez, antes de crear ninguna.
func (r *Reconciler) CreateMissingOrders(ctx context.Context, txs []domain.Transaction, accountID, tagName string) error {
	tag, err := r.EnsureTag(ctx, tagName)
	if err != nil {
		return fmt.Errorf("reconcile.CreateMissingOrders: %w", err)
	}
	all, err := r.portfolio.Orders(ctx)
	if err != nil {
		return fmt.Errorf("reconcile.CreateMissingOrders: %w", err)
	}
	user, err := r.user(ctx)
	if err != nil {
		return fmt.Errorf("reconcile.CreateMissingOrders: %w", err)
	}

	tagged := make([]domain.Activity, 0, len(all))
	for _, o := range all {
		if o.HasTag(tag.Name) {
			tagged = append(tagged, o)
		}
	}

	orderTag := domain.Tag{ID: tag.ID, Name: tag.Name, UserID: user.ID}
	for _, tx := range txs {
		date, err := normalize.DotToISO(tx.Date)
		if err != nil {
			return fmt.Errorf("reconcile.CreateMissingOrders %s: %w", tx.Symbol, err)
		}
		if FindOrder(tagged, date, tx) != nil {
			continue
		}

		r.log.Debug("creating missing order", "symbol", tx.Symbol, "date", date)
		created, err := r.portfolio.CreateOrder(ctx, NewOrderFor(tx, date, accountID, orderTag))
		if err != nil {
			return fmt.Errorf("reconcile.CreateMissingOrders %s %s: %w", tx.Symbol, tx.Date, err)
		}
		r.log.Info("order created", "symbol", tx.Symbol, "date", date, "type", tx.Type, "unit_price", tx.Price.String(), "id", created.ID)
		r.record(domain.Write{
			Kind:     domain.WriteOrder,
			Key:      fmt.Sprintf("%s %s", tx.Symbol, tx.Date),
			Detail:   string(tx.Type),
			Amount:   tx.Volume,
			Currency: tx.Currency,
		})

		if err := r.sleep(ctx, r.opts.CreateDelay); err != nil {
			return err
		}
	}
	return nil
}

// FindOrder busca una orden con la misma fecha ISO y el mismo precio unitario.
func FindOrder(orders []domain.Activity, isoDate string, tx domain.Transaction) *domain.Activity {
	for i := range orders {
		if normalize.RemoteISO(orders[i].Date) == isoDate && orders[i].UnitPrice.Equal(tx.Price) {
			return &orders[i]
		}
	}
	return nil
}

// NewOrderFor arma el payload de creación de la orden de una transacción.
func NewOrderFor(tx domain.Transaction, isoDate, accountID string, tag domain.Tag) domain.NewActivity {
	return domain.NewActivity{
		AccountID:     accountID,
		AssetClass:    domain.AssetClassEquity,
		AssetSubClass: domain.AssetSubClassETF,
		Currency:      tx.Currency,
		DataSource:    domain.DataSourceManual,
		Date:          isoDate,
		Fee:           tx.Fee,
		Quantity:      tx.Amount,
		Symbol:        tx.Symbol,
		Tags:          []domain.Tag{tag},
		Type:          string(tx.Type),
		UnitPrice:     tx.Price,
	}
}
