package reconcile

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/eicfolio/internal/domain"
)

// controlEntity busca una entidad por su clave natural y la crea si no existe.
// created indica si hubo escritura remota.
func controlEntity[T any](
	ctx context.Context,
	list func(context.Context) ([]T, error),
	match func(T) bool,
	create func(context.Context) (T, error),
) (entity T, created bool, err error) {
	items, err := list(ctx)
	if err != nil {
		return entity, false, err
	}
	for _, item := range items {
		if match(item) {
			return item, false, nil
		}
	}
	entity, err = create(ctx)
	if err != nil {
		return entity, false, err
	}
	return entity, true, nil
}

// EnsurePlatform devuelve la plataforma configurada, creándola si falta.
func (r *Reconciler) EnsurePlatform(ctx context.Context) (domain.Platform, error) {
	want := domain.Platform{Name: r.opts.PlatformName, URL: r.opts.PlatformURL}

	p, created, err := controlEntity(ctx,
		r.portfolio.Platforms,
		func(p domain.Platform) bool { return p.Name == want.Name },
		func(ctx context.Context) (domain.Platform, error) { return r.portfolio.CreatePlatform(ctx, want) },
	)
	if err != nil {
		return domain.Platform{}, fmt.Errorf("reconcile.EnsurePlatform: %w", err)
	}

	if created {
		r.log.Info("platform created", "name", p.Name, "id", p.ID)
		r.record(domain.Write{Kind: domain.WritePlatform, Key: p.Name, Detail: p.URL})
	} else {
		r.log.Debug("platform found", "name", p.Name)
	}
	return p, nil
}

// EnsureTag devuelve la etiqueta name, creándola con el id del usuario.
func (r *Reconciler) EnsureTag(ctx context.Context, name string) (domain.Tag, error) {
	if v, ok := r.cache.Get("tag:" + name); ok {
		return v.(domain.Tag), nil
	}

	t, created, err := controlEntity(ctx,
		r.portfolio.Tags,
		func(t domain.Tag) bool { return t.Name == name },
		func(ctx context.Context) (domain.Tag, error) {
			u, err := r.user(ctx)
			if err != nil {
				return domain.Tag{}, err
			}
			return r.portfolio.CreateTag(ctx, name, u.ID)
		},
	)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("reconcile.EnsureTag %s: %w", name, err)
	}

	if created {
		r.log.Info("tag created", "name", t.Name, "id", t.ID)
		r.record(domain.Write{Kind: domain.WriteTag, Key: t.Name})
	} else {
		r.log.Debug("tag found", "name", t.Name)
	}
	r.cache.SetDefault("tag:"+name, t)
	return t, nil
}

// EnsureAccount devuelve la cuenta configurada. Una cuenta nueva nace con
// saldo 0 en la divisa base del usuario.
func (r *Reconciler) EnsureAccount(ctx context.Context, platformID string) (domain.Account, error) {
	name := r.opts.AccountName

	a, created, err := controlEntity(ctx,
		r.portfolio.Accounts,
		func(a domain.Account) bool { return a.Name == name },
		func(ctx context.Context) (domain.Account, error) {
			u, err := r.user(ctx)
			if err != nil {
				return domain.Account{}, err
			}
			return r.portfolio.CreateAccount(ctx, domain.Account{
				Name:       name,
				Currency:   u.BaseCurrency,
				PlatformID: platformID,
			})
		},
	)
	if err != nil {
		return domain.Account{}, fmt.Errorf("reconcile.EnsureAccount %s: %w", name, err)
	}

	if created {
		r.log.Info("account created", "name", a.Name, "id", a.ID, "currency", a.Currency)
		r.record(domain.Write{Kind: domain.WriteAccount, Key: a.Name, Currency: a.Currency})
	} else {
		r.log.Debug("account found", "name", a.Name)
	}
	return a, nil
}
