package eic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/ports"
)

// Source implementa ports.BrokerSource: login, tabla de comisiones y los dos
// exports, en ese orden, dentro de una única sesión.
type Source struct {
	scraper ports.BrokerScraper
	creds   ports.Credentials
	log     *slog.Logger
}

func NewSource(scraper ports.BrokerScraper, creds ports.Credentials, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{scraper: scraper, creds: creds, log: log.With("component", "eic")}
}

// Collect devuelve transacciones, órdenes y comisiones. Cierra la sesión
// del portal al terminar, también en caso de error.
func (s *Source) Collect(ctx context.Context) (data domain.BrokerData, err error) {
	sess, err := s.scraper.Login(ctx, s.creds)
	if err != nil {
		return domain.BrokerData{}, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("eic.Collect: close session: %w", cerr)
		}
	}()

	pager, err := sess.FeeTable(ctx)
	if err != nil {
		return domain.BrokerData{}, err
	}
	rows, err := ScrapeFeeTable(ctx, pager)
	if err != nil {
		return domain.BrokerData{}, err
	}
	fees, err := ParseFeeTable(rows)
	if err != nil {
		return domain.BrokerData{}, err
	}
	s.log.Debug("fee table scraped", "records", len(fees.Fees), "currency", fees.Currency)

	txCSV, err := sess.DownloadTransactionsCSV(ctx)
	if err != nil {
		return domain.BrokerData{}, err
	}
	ordersCSV, err := sess.DownloadOrdersCSV(ctx)
	if err != nil {
		return domain.BrokerData{}, err
	}

	txs, err := ParseTransactions(txCSV)
	if err != nil {
		return domain.BrokerData{}, err
	}
	orders, err := ParseOrders(ordersCSV)
	if err != nil {
		return domain.BrokerData{}, err
	}

	var errs []error
	if len(txs) == 0 {
		errs = append(errs, errors.New("transactions should not be empty"))
	}
	if len(orders) == 0 {
		errs = append(errs, errors.New("orders should not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return domain.BrokerData{}, fmt.Errorf("eic.Collect: %w", err)
	}

	s.log.Info("broker data collected",
		"transactions", len(txs),
		"orders", len(orders),
		"fees", len(fees.Fees),
	)
	return domain.BrokerData{Transactions: txs, Orders: orders, Fees: fees}, nil
}
