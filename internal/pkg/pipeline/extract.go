package pipeline

import (
	"math"

	"github.com/gofiber/fiber/v2/log"

	"github.com/facturave/reciboscan/app/models"
	"github.com/facturave/reciboscan/internal/pkg/docintel"
)

// buildReceipt maps an analysis result onto the document schema. It never
// fails; an unusable result yields an empty receipt and the required-field
// gate takes it from there.
func buildReceipt(result *docintel.AnalyzeResult) *models.ExtractedReceipt {
	receipt := &models.ExtractedReceipt{}
	if result == nil || len(result.Documents) == 0 {
		log.Warn("[Pipeline] Analysis returned no documents")
		return receipt
	}

	// Only the first recognized document counts.
	fields := result.Documents[0].Fields

	receipt.FechaTransaccion = scalarField(fields, "FechaTransaccion")
	receipt.MontoTotal = scalarField(fields, "MontoTotal")
	receipt.NombreComercio = scalarField(fields, "NombreComercio")
	receipt.RIFComercio = scalarField(fields, "RIF-comercio")
	receipt.FacturaNumero = scalarField(fields, "FacturaNumero")
	receipt.NombreRazon = scalarField(fields, "NombreRazon")
	receipt.RIFCI = scalarField(fields, "RIF-CI")
	receipt.MontoExento = scalarField(fields, "MontoExento")
	receipt.MontoIVA = scalarField(fields, "MontoIVA")
	receipt.BaseImponible = scalarField(fields, "BaseImponible")

	receipt.Items, receipt.ItemsConfidenceScore = lineItems(fields)
	return receipt
}

func scalarField(fields map[string]docintel.Field, name string) interface{} {
	f, ok := fields[name]
	if !ok {
		log.Warnf("[Pipeline] Field %s not found in analysis result", name)
		return nil
	}
	return f.Scalar()
}

func lineItems(fields map[string]docintel.Field) ([]models.LineItem, *float64) {
	itemsField, ok := fields["Items"]
	if !ok {
		log.Warn("[Pipeline] Field Items not found in analysis result")
		return nil, nil
	}

	var items []models.LineItem
	var confidences []float64

	for _, entry := range itemsField.ValueArray {
		obj := entry.ValueObject
		if len(obj) == 0 {
			continue
		}

		var item models.LineItem
		item.Description = subField(obj, "Description", &confidences)
		item.Quantity = subField(obj, "Quantity", &confidences)
		item.TotalPrice = subField(obj, "TotalPrice", &confidences)
		item.UnitPrice = subField(obj, "UnitPrice", &confidences)

		if !item.Empty() {
			items = append(items, item)
		}
	}

	return items, meanConfidence(confidences)
}

// subField pulls one sub-field value and collects its confidence. The
// confidence counts whenever the sub-field is present, even when no value
// could be extracted from it.
func subField(obj map[string]docintel.Field, name string, confidences *[]float64) interface{} {
	f, ok := obj[name]
	if !ok {
		return nil
	}
	if f.Confidence != nil {
		*confidences = append(*confidences, *f.Confidence)
	}
	return f.Scalar()
}

func meanConfidence(confidences []float64) *float64 {
	if len(confidences) == 0 {
		return nil
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	mean := math.Round(sum/float64(len(confidences))*10000) / 10000
	return &mean
}
