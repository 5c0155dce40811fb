package llm

import (
	"fmt"
	"strings"

	"fintrax/internal/domain/assistant"
)

const assistantName = "Finyx"

func classifyPrompt(ownerName string) string {
	return fmt.Sprintf(`Eres %s, un asistente financiero que decide si necesita leer o escribir
datos reales del usuario para contestar su petición.

El usuario se llama %s. Puedes usar su nombre de forma natural en respuestas de texto,
pero nunca dentro del JSON.

Si la petición requiere datos (consultar ingresos, gastos o balance, consultar una categoría,
listar transacciones, crear una transacción, listar o crear metas, analizar sus finanzas),
responde EXCLUSIVAMENTE con un JSON válido, sin texto adicional, con esta estructura:

{
  "action": "consulta_balance" | "consulta_categoria" | "listar_transacciones" |
            "crear_transaccion" | "consulta_ingresos" | "consulta_gastos" |
            "analisis_finanzas" | "listar_metas" | "crear_meta" | "none",
  "categoria": "",
  "tipo": "",
  "monto": "",
  "descripcion": "",
  "nombre_meta": "",
  "monto_meta": "",
  "limit": "",
  "requiereSQL": true | false
}

Si no requiere datos, responde en texto simple.
Preguntas como "¿Por qué gasté tanto este mes?" o "¿Cómo puedo ahorrar?" usan "analisis_finanzas".
Usa nombres de categorías, nunca IDs.`, assistantName, ownerName)
}

func composePrompt(ownerName string) string {
	return fmt.Sprintf(`Eres %s, un asistente financiero amigable.
El usuario se llama %s. Úsalo de forma cordial y profesional.

Reglas:
- Si se creó una transacción o una meta, responde en una o dos frases: confirmación y una breve recomendación.
- En consultas y análisis puedes dar una respuesta más completa basada en los datos.
- Nunca respondas con JSON.`, assistantName, ownerName)
}

const dateLayout = "02/01/2006"

// RenderFacts formats the question and gathered facts as the user message
// for the compose call.
func RenderFacts(question string, f assistant.Facts) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pregunta del usuario: %s\n\nDatos:\n", question)
	if f.Income != nil {
		fmt.Fprintf(&b, "Ingresos: %s\n", f.Income.StringFixed(2))
	}
	if f.Expenses != nil {
		fmt.Fprintf(&b, "Gastos: %s\n", f.Expenses.StringFixed(2))
	}
	if f.Balance != nil {
		fmt.Fprintf(&b, "Balance: %s\n", f.Balance.StringFixed(2))
	}
	if f.CategoryTotal != nil {
		fmt.Fprintf(&b, "Total en categoría (%s): %s\n", f.Category, f.CategoryTotal.StringFixed(2))
	}
	if t := f.CreatedTransaction; t != nil {
		fmt.Fprintf(&b, "Transacción creada: %s de $%s en %s (%s)\n",
			t.Kind, t.Amount.StringFixed(2), orDefault(t.CategoryName, "Sin categoría"), orDefault(t.Description, "-"))
	}
	if g := f.CreatedGoal; g != nil {
		fmt.Fprintf(&b, "Meta creada: %s con objetivo $%s\n", g.Name, g.TargetAmount.StringFixed(2))
	}

	b.WriteString("\nTransacciones:\n")
	for i, t := range f.Transactions {
		fmt.Fprintf(&b, "%d. %s | $%s | %s | %s | %s\n",
			i+1,
			strings.ToUpper(string(t.Kind)),
			t.Amount.StringFixed(2),
			orDefault(t.CategoryName, "Sin categoría"),
			orDefault(t.Description, "-"),
			t.Date.Format(dateLayout),
		)
	}

	b.WriteString("\nMetas:\n")
	for i, g := range f.Goals {
		fmt.Fprintf(&b, "%d. %s | Objetivo: $%s | Ahorrado: $%s | Estado: %s\n",
			i+1, g.Name, g.TargetAmount.StringFixed(2), g.CurrentAmount.StringFixed(2), g.State)
	}

	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
