package reconcile

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/eicfolio/internal/adapters/countrycodes"
	"github.com/alejandrodnm/eicfolio/internal/domain"
)

// otherCountry es la fila que justETF usa para el resto; no tiene código.
const otherCountry = "Other"

// CreateMissingProfiles crea y completa el perfil de cada instrumento que no
// exista aún en Ghostfolio, en orden y con una pausa tras cada creación.
// Los perfiles se listan una sola vez para todo el lote; known se actualiza
// tras cada alta para no repetir símbolos.
func (r *Reconciler) CreateMissingProfiles(ctx context.Context, defs []domain.InstrumentDefinition) error {
	existing, err := r.portfolio.Profiles(ctx)
	if err != nil {
		return fmt.Errorf("reconcile.CreateMissingProfiles: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.Symbol] = true
	}

	for _, def := range defs {
		if known[def.Symbol] {
			r.log.Debug("profile found", "symbol", def.Symbol)
			continue
		}
		if err := r.createProfile(ctx, def); err != nil {
			return fmt.Errorf("reconcile.CreateMissingProfiles %s: %w", def.Symbol, err)
		}
		known[def.Symbol] = true

		if err := r.sleep(ctx, r.opts.CreateDelay); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) createProfile(ctx context.Context, def domain.InstrumentDefinition) error {
	codes, err := r.countryCodes(ctx)
	if err != nil {
		return err
	}
	alloc, err := r.allocation(ctx, def.ISIN)
	if err != nil {
		return err
	}
	countries, sectors := r.resolveAllocation(def.ISIN, alloc, codes)

	r.log.Debug("creating profile", "symbol", def.Symbol, "isin", def.ISIN)
	created, err := r.portfolio.CreateProfile(ctx, def.Symbol)
	if err != nil {
		return err
	}

	update := ProfileUpdateFor(def, created, countries, sectors, r.opts.GatherData)
	if err := r.portfolio.UpdateProfile(ctx, def.Symbol, update); err != nil {
		return err
	}

	r.log.Info("profile created", "symbol", def.Symbol, "name", update.Name, "countries", len(update.Countries), "sectors", len(update.Sectors))
	r.record(domain.Write{Kind: domain.WriteProfile, Key: def.Symbol, Detail: update.Name, Currency: def.Currency})
	return nil
}

// ProfileUpdateFor arma el PATCH de un perfil recién creado. Lo que el perfil
// ya trae tiene prioridad sobre los valores calculados.
func ProfileUpdateFor(def domain.InstrumentDefinition, created domain.Profile, countries []domain.CountryWeight, sectors []domain.SectorWeight, gatherData bool) domain.ProfileUpdate {
	u := domain.ProfileUpdate{
		AssetClass:    domain.AssetClassEquity,
		AssetSubClass: domain.AssetSubClassETF,
		Countries:     countries,
		Currency:      def.Currency,
		IsActive:      gatherData,
		Name:          fmt.Sprintf("%s (%s)", def.Symbol, def.ISIN),
		Sectors:       sectors,
	}
	if created.AssetClass != "" {
		u.AssetClass = created.AssetClass
	}
	if created.AssetSubClass != "" {
		u.AssetSubClass = created.AssetSubClass
	}
	if len(created.Countries) > 0 {
		u.Countries = created.Countries
	}
	if len(created.Sectors) > 0 {
		u.Sectors = created.Sectors
	}
	return u
}

// resolveAllocation traduce los países de justETF a alpha-2. Un país sin
// código conserva el nombre como código.
func (r *Reconciler) resolveAllocation(isin string, alloc domain.Allocation, codes []domain.CountryCode) ([]domain.CountryWeight, []domain.SectorWeight) {
	var countries []domain.CountryWeight
	for _, c := range alloc.Countries {
		code := c.Name
		if match, ok := countrycodes.Resolve(codes, c.Name); ok {
			code = match.Alpha2
		} else if c.Name != otherCountry {
			r.log.Warn("unable to find country code", "isin", isin, "country", c.Name)
		}
		countries = append(countries, domain.CountryWeight{Code: code, Weight: c.Weight})
	}

	var sectors []domain.SectorWeight
	for _, s := range alloc.Sectors {
		sectors = append(sectors, domain.SectorWeight{Name: s.Name, Weight: s.Weight})
	}
	return countries, sectors
}

func (r *Reconciler) countryCodes(ctx context.Context) ([]domain.CountryCode, error) {
	if v, ok := r.cache.Get("country-codes"); ok {
		return v.([]domain.CountryCode), nil
	}
	codes, err := r.src.Countries.CountryCodes(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault("country-codes", codes)
	return codes, nil
}

func (r *Reconciler) allocation(ctx context.Context, isin string) (domain.Allocation, error) {
	key := "allocation:" + isin
	if v, ok := r.cache.Get(key); ok {
		return v.(domain.Allocation), nil
	}
	alloc, err := r.src.Prices.CountriesAndSectors(ctx, isin)
	if err != nil {
		return domain.Allocation{}, err
	}
	r.cache.SetDefault(key, alloc)
	return alloc, nil
}
