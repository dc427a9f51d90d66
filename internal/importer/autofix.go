package importer

import (
	"fmt"
	"strings"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

// FixResult reports one repair attempt. Fixed values must be re-validated by
// the caller; a repair is never applied silently.
type FixResult struct {
	Fixed    bool
	NewValue interface{}
}

// TryAutoFix attempts to repair the value attached to a rejected diagnostic.
// Only a fixed set of numeric codes is ever repairable; missing names and
// categories carry zero information to infer from.
func TryAutoFix(diag models.ImportError) FixResult {
	if !diag.AutoFixable {
		return FixResult{}
	}

	switch diag.Code {
	case models.ErrCodeInvalidPrice:
		price := NormalizePrice(stringValue(diag.Value))
		if price > 0 {
			return FixResult{Fixed: true, NewValue: price}
		}
		return FixResult{}
	case models.ErrCodeInvalidStock:
		stock := NormalizeStock(stringValue(diag.Value))
		if stock < 0 {
			stock = 0
		}
		return FixResult{Fixed: true, NewValue: stock}
	default:
		return FixResult{}
	}
}

func stringValue(value interface{}) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprintf("%v", value))
}
