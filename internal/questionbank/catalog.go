package questionbank

import "pelviu-funnel/internal/models"

// DefaultVersion identifies the built-in catalog.
const DefaultVersion = "pelviu-2025.1"

var sharedBase = []models.Question{
	{
		ID:          1,
		Text:        "¿Con qué frecuencia experimentas pérdidas de orina?",
		Description: "La frecuencia es el primer indicador de la debilidad del soporte pélvico.",
		ReportLabel: "Frecuencia Urinaria",
		Options: []models.Option{
			{Label: "Nunca", Score: 0},
			{Label: "Una vez a la semana o menos", Score: 5},
			{Label: "Varias veces por semana", Score: 10},
			{Label: "Una vez al día", Score: 15},
			{Label: "Continuamente", Score: 25},
		},
	},
	{
		ID:          2,
		Text:        "¿Qué cantidad de orina sueles perder?",
		Description: "Evaluamos el volumen para determinar el grado de insuficiencia muscular.",
		ReportLabel: "Cantidad Pérdida",
		Options: []models.Option{
			{Label: "Nada", Score: 0},
			{Label: "Gotas o cantidad muy pequeña", Score: 10},
			{Label: "Cantidad moderada", Score: 20},
			{Label: "Cantidad severa", Score: 30},
		},
	},
}

var womanTrack = []models.Question{
	{
		ID:          3,
		Text:        "¿Sientes pesadez o presión en la zona vaginal (sensación de bulto)?",
		Description: "Este es un síntoma clave de prolapso de órganos pélvicos.",
		ReportLabel: "Sensación Bulto",
		Options: []models.Option{
			{Label: "Nunca", Score: 0},
			{Label: "Ocasionalmente al final del día", Score: 10},
			{Label: "Frecuentemente tras esfuerzos", Score: 20},
			{Label: "De forma constante", Score: 30},
		},
	},
	{
		ID:          4,
		Text:        "¿Pierdes orina al toser, estornudar, reír o saltar?",
		Description: "Incontinencia de esfuerzo, común tras partos o durante la menopausia.",
		ReportLabel: "Esfuerzo (Tos/Risa)",
		Options: []models.Option{
			{Label: "Nunca", Score: 0},
			{Label: "A veces", Score: 10},
			{Label: "Casi siempre que ocurre el esfuerzo", Score: 20},
		},
	},
	{
		ID:          5,
		Text:        "¿Has notado una disminución en la sensibilidad o satisfacción sexual?",
		Description: "La laxitud vaginal afecta directamente a la calidad de las relaciones íntimas.",
		ReportLabel: "Satisfacción Sexual",
		Options: []models.Option{
			{Label: "No, todo normal", Score: 0},
			{Label: "He notado un cambio leve", Score: 10},
			{Label: "Ha afectado significativamente mi bienestar", Score: 20},
		},
	},
}

var manTrack = []models.Question{
	{
		ID:          103,
		Text:        "¿Sufres de goteo post-miccional (gotas al terminar de orinar)?",
		Description: "Falla en el músculo bulbocavernoso, muy común en la salud pélvica masculina.",
		ReportLabel: "Goteo Post-Miccional",
		Options: []models.Option{
			{Label: "Nunca", Score: 0},
			{Label: "A veces", Score: 10},
			{Label: "Siempre me ocurre", Score: 20},
		},
	},
	{
		ID:          104,
		Text:        "¿Has pasado por una cirugía de próstata o tienes problemas de flujo débil?",
		Description: "La recuperación funcional post-quirúrgica es crítica para el control.",
		ReportLabel: "Pérdida Post-Cirugía",
		Options: []models.Option{
			{Label: "No / Flujo fuerte", Score: 0},
			{Label: "Cirugía previa / Flujo algo débil", Score: 15},
			{Label: "Post-operatorio reciente / Flujo muy débil", Score: 25},
		},
	},
	{
		ID:          105,
		Text:        "¿Sientes que tus erecciones han perdido firmeza o duración?",
		Description: "Los músculos isquiocavernosos son los responsables mecánicos de la erección.",
		ReportLabel: "Firmeza Erección",
		Options: []models.Option{
			{Label: "Todo normal", Score: 0},
			{Label: "Siento una pérdida de potencia", Score: 15},
			{Label: "Afectación severa del rendimiento", Score: 25},
		},
	},
}

func defaultTracks() map[models.Gender][]models.Question {
	woman := append(append([]models.Question{}, sharedBase...), womanTrack...)
	man := append(append([]models.Question{}, sharedBase...), manTrack...)
	return map[models.Gender][]models.Question{
		models.GenderWoman: woman,
		models.GenderMan:   man,
	}
}
