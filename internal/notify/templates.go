package notify

import (
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

// Shared template helpers. Amounts are Chilean pesos, formatted with a dot as
// thousands separator the way the frontend displays them.
var tmplFuncs = template.FuncMap{
	"clp": formatCLP,
	"subtotal": func(price float64, qty int) string {
		return formatCLP(price * float64(qty))
	},
}

func formatCLP(amount float64) string {
	s := fmt.Sprintf("%.0f", amount)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Confirmación de Reserva - Venados Bakery</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #8B4513, #D2691E); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0;">¡Reserva Confirmada!</h1>
    <p style="margin: 10px 0 0 0;">Venados Bakery</p>
  </div>
  <div style="background: white; padding: 30px; border: 1px solid #ddd; border-top: none;">
    <p>Hola <strong>{{.Customer.Name}}</strong>,</p>
    <p>¡Excelente noticia! Tu pago ha sido procesado exitosamente y tu reserva está confirmada.</p>
    <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 25px 0;">
      <h2 style="color: #8B4513; margin-top: 0;">Detalles de tu Reserva</h2>
      <table style="width: 100%;">
        <tr><td><strong>Número de Reserva:</strong></td><td style="text-align: right; color: #8B4513;"><strong>#{{.ReservationNumber}}</strong></td></tr>
        <tr><td><strong>Fecha de Retiro:</strong></td><td style="text-align: right;">{{.Customer.PickupDate}}</td></tr>
        <tr><td><strong>Hora de Retiro:</strong></td><td style="text-align: right;">{{.Customer.PickupTime}}</td></tr>
      </table>
      {{if .Customer.Message}}
      <div style="margin-top: 15px; padding: 10px; background: #e9f7ef; border-left: 4px solid #27ae60;">
        <strong>Mensaje especial:</strong><br>"{{.Customer.Message}}"
      </div>
      {{end}}
    </div>
    <h3 style="color: #8B4513;">Productos Reservados</h3>
    <table style="width: 100%; border-collapse: collapse;">
      {{range .Products}}
      <tr>
        <td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Quantity}}x</td>
        <td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Name}}</td>
        <td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">{{subtotal .UnitPrice .Quantity}}</td>
      </tr>
      {{end}}
    </table>
    <div style="background: #fff3cd; padding: 20px; border-radius: 8px; margin: 25px 0; border: 1px solid #ffeaa7;">
      <h3 style="color: #8B4513; margin-top: 0;">Resumen de Pago</h3>
      <table style="width: 100%;">
        <tr><td><strong>Total:</strong></td><td style="text-align: right;">{{clp .Total}}</td></tr>
        <tr style="color: #27ae60;"><td><strong>Abono realizado (50%):</strong></td><td style="text-align: right;"><strong>{{clp .Deposit}}</strong></td></tr>
        <tr style="color: #e74c3c;"><td><strong>Pendiente (pagar en local):</strong></td><td style="text-align: right;"><strong>{{clp .Balance}}</strong></td></tr>
      </table>
    </div>
    <div style="background: #e8f4fd; padding: 20px; border-radius: 8px; margin: 25px 0;">
      <h3 style="color: #2c5aa0; margin-top: 0;">Instrucciones Importantes</h3>
      <ul style="margin: 0; padding-left: 20px;">
        <li>Presenta este comprobante el día de retiro</li>
        <li>El saldo restante se paga directamente en el local</li>
        <li>Llega puntual a la hora acordada</li>
        <li>Si necesitas cambios, contáctanos con anticipación</li>
      </ul>
    </div>
    <p style="text-align: center; color: #666;">¡Gracias por elegir Venados Bakery!</p>
  </div>
</body>
</html>`))

var confirmationTextTmpl = texttemplate.Must(texttemplate.New("confirmation_text").Funcs(texttemplate.FuncMap(tmplFuncs)).Parse(`Hola {{.Customer.Name}},

¡Tu reserva ha sido confirmada!

Número de Reserva: #{{.ReservationNumber}}
Fecha de Retiro: {{.Customer.PickupDate}}
Hora: {{.Customer.PickupTime}}
Total: {{clp .Total}}
Abono realizado: {{clp .Deposit}}
Pendiente: {{clp .Balance}}

Instrucciones:
- Presenta este comprobante el día de retiro
- El saldo restante se paga en el local
- Llega puntual a la hora acordada

¡Gracias por elegir Venados Bakery!
`))

var pendingTmpl = template.Must(template.New("pending").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #8B4513;">Pago en Proceso</h2>
  <p>Hola <strong>{{.Customer.Name}}</strong>,</p>
  <p>Tu pago está siendo procesado. Te notificaremos cuando se confirme.</p>
  <p><strong>Reserva:</strong> #{{.ReservationNumber}}</p>
  <p>Gracias por tu paciencia.</p>
  <p><em>Venados Bakery</em></p>
</div>`))

var contactTmpl = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Nuevo Mensaje de Contacto - Venados Bakery</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #D97706, #F59E0B); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0;">Nuevo Mensaje de Contacto</h1>
    <p style="margin: 10px 0 0 0;">Venados Bakery &amp; Coffee</p>
  </div>
  <div style="background: white; padding: 30px; border: 1px solid #ddd; border-top: none;">
    <div style="background: #F3F4F6; padding: 20px; border-radius: 8px;">
      <h2 style="color: #D97706; margin-top: 0;">Información del Cliente</h2>
      <table style="width: 100%;">
        <tr><td style="font-weight: bold; width: 120px;">Nombre:</td><td>{{.Name}}</td></tr>
        <tr><td style="font-weight: bold;">Email:</td><td><a href="mailto:{{.Email}}" style="color: #D97706;">{{.Email}}</a></td></tr>
        <tr><td style="font-weight: bold;">Teléfono:</td><td>{{.Phone}}</td></tr>
        <tr><td style="font-weight: bold;">Fecha:</td><td>{{.SentAt.Format "02-01-2006 15:04"}}</td></tr>
      </table>
    </div>
    <div style="background: #FEF3C7; padding: 20px; border-radius: 8px; border-left: 4px solid #F59E0B; margin-top: 20px;">
      <h3 style="color: #92400E; margin-top: 0;">Mensaje del Cliente</h3>
      <div style="background: white; padding: 15px; border-radius: 6px; font-style: italic;">"{{.Message}}"</div>
    </div>
    <p style="text-align: center; color: #6B7280; margin-top: 30px;">
      Responde directamente a <strong>{{.Email}}</strong> para contactar al cliente.
    </p>
  </div>
</body>
</html>`))

var quoteTmpl = template.Must(template.New("quote").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Nueva Solicitud de Cotización - Venados Bakery</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #059669, #10B981); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0;">Nueva Solicitud de Cotización</h1>
    <p style="margin: 10px 0 0 0;">Venados Bakery &amp; Coffee</p>
  </div>
  <div style="background: white; padding: 30px; border: 1px solid #ddd; border-top: none;">
    <div style="background: #F3F4F6; padding: 20px; border-radius: 8px;">
      <h2 style="color: #059669; margin-top: 0;">Información del Cliente</h2>
      <table style="width: 100%;">
        <tr><td style="font-weight: bold; width: 150px;">Nombre:</td><td>{{.Quote.Name}}</td></tr>
        <tr><td style="font-weight: bold;">Email:</td><td><a href="mailto:{{.Quote.Email}}" style="color: #059669;">{{.Quote.Email}}</a></td></tr>
        <tr><td style="font-weight: bold;">Teléfono:</td><td>{{.Quote.Phone}}</td></tr>
        <tr><td style="font-weight: bold;">Fecha Solicitud:</td><td>{{.Quote.SentAt.Format "02-01-2006 15:04"}}</td></tr>
      </table>
    </div>
    <div style="background: #ECFDF5; padding: 20px; border-radius: 8px; border-left: 4px solid #10B981; margin-top: 20px;">
      <h2 style="color: #047857; margin-top: 0;">Detalles del Producto Solicitado</h2>
      <table style="width: 100%;">
        <tr><td style="font-weight: bold; width: 150px;">Fecha del Evento:</td><td style="color: #DC2626; font-weight: bold;">{{.Quote.EventDate.Format "02-01-2006"}}</td></tr>
        <tr><td style="font-weight: bold;">Tipo de Producto:</td><td>{{.Quote.ProductType}}</td></tr>
        <tr><td style="font-weight: bold;">Número de Personas:</td><td>{{.Quote.Headcount}} personas</td></tr>
        {{if .Quote.Flavor}}<tr><td style="font-weight: bold;">Sabor Preferido:</td><td>{{.Quote.Flavor}}</td></tr>{{end}}
        {{if .Quote.Budget}}<tr><td style="font-weight: bold;">Presupuesto:</td><td>{{.Quote.Budget}}</td></tr>{{end}}
      </table>
    </div>
    <div style="background: #FEF3C7; padding: 20px; border-radius: 8px; border-left: 4px solid #F59E0B; margin-top: 20px;">
      <h3 style="color: #92400E; margin-top: 0;">Descripción Detallada del Cliente</h3>
      <div style="background: white; padding: 15px; border-radius: 6px; font-style: italic;">"{{.Quote.Message}}"</div>
    </div>
    <div style="background: #EFF6FF; padding: 15px; border-radius: 8px; margin-top: 20px;">
      <h4 style="color: #1D4ED8; margin: 0 0 10px 0;">Información de Tiempo</h4>
      <p style="margin: 5px 0;"><strong>Días hasta el evento:</strong> {{.DaysUntilEvent}} días</p>
      <p style="margin: 5px 0; font-size: 14px;"><em>Considera el tiempo de preparación necesario para este tipo de producto.</em></p>
    </div>
    <p style="text-align: center; color: #6B7280; margin-top: 30px;">
      Responde directamente a <strong>{{.Quote.Email}}</strong> para enviar la cotización.
    </p>
  </div>
</body>
</html>`))
