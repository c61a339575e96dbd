package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/domain/models"
)

// ErrProductNotFound indicates the product reference has no catalog row.
var ErrProductNotFound = errors.New("product not found in catalog")

const productCatalogRange = "Produits!A:F"

// Catalog row layout: ref, unit label, units/box, units/pack, units/tray,
// recipe yield. Ratio cells may be blank; blanks become zero and the
// conversion module decides what that means per view.

// ConversionContext looks up the product's unit ratios from the catalog
// sheet. The result is built fresh on every call, never cached.
func (r *GoogleSheetRepository) ConversionContext(ctx context.Context, productRef string) (models.ConversionContext, error) {
	rows, err := r.ReadRange(ctx, productCatalogRange)
	if err != nil {
		return models.ConversionContext{}, fmt.Errorf("load product catalog: %w", err)
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(fmt.Sprint(row[0])), strings.TrimSpace(productRef)) {
			continue
		}

		cctx := models.ConversionContext{UnitLabel: strings.TrimSpace(fmt.Sprint(row[1]))}
		cctx.UnitsPerBox = cellFloat(row, 2)
		cctx.UnitsPerPack = cellFloat(row, 3)
		cctx.UnitsPerTray = cellFloat(row, 4)
		cctx.RecipeYield = cellFloat(row, 5)
		return cctx, nil
	}

	r.logger.Debug("product missing from catalog sheet", zap.String("product_ref", productRef))
	return models.ConversionContext{}, ErrProductNotFound
}

func cellFloat(row []interface{}, idx int) float64 {
	if idx >= len(row) {
		return 0
	}
	str := strings.TrimSpace(fmt.Sprint(row[idx]))
	if str == "" {
		return 0
	}
	str = strings.ReplaceAll(str, ",", ".")
	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0
	}
	return value
}
