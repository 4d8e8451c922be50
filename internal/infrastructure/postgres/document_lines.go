package postgres

import (
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
)

// Valores de la columna kind de las líneas.
const (
	lineKindMaterial = "MATERIAL"
	lineKindManual   = "MANUAL"
)

// kindColumns descompone el origen de la línea en kind, material_id y manual_task.
func kindColumns(k entity.LineKind) (kind string, materialID, manualTask *string) {
	switch v := k.(type) {
	case entity.MaterialLine:
		return lineKindMaterial, nullIfEmpty(v.MaterialID), nil
	case entity.ManualTask:
		return lineKindManual, nil, &v.Text
	default:
		empty := ""
		return lineKindManual, nil, &empty
	}
}

// lineKindFrom reconstruye el origen de la línea. materialName viene del LEFT JOIN
// con materials y está vacío si el material se borró.
func lineKindFrom(kind string, materialID *string, manualTask, materialName string) entity.LineKind {
	if kind == lineKindMaterial && materialID != nil {
		return entity.MaterialLine{MaterialID: *materialID, Name: materialName}
	}
	return entity.ManualTask{Text: manualTask}
}
