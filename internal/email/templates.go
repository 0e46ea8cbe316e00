package email

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"
	"time"
)

// ActivationData fills the registration mail.
type ActivationData struct {
	FullName       string
	Username       string
	Email          string
	ActivationLink string
	CreatedAt      time.Time
}

// VoucherData fills the mail sent when an order completes.
type VoucherData struct {
	FullName string
	OrderID  string
	Quantity int
	Total    int64
	Vouchers []string
}

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"rupiah": formatRupiah,
	"inc":    func(i int) int { return i + 1 },
	"date":   func(t time.Time) string { return t.Format("02 Jan 2006 15:04") },
}).Parse(layoutHTML + activationHTML + voucherHTML))

const layoutHTML = `{{define "header"}}<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">{{.}}</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
{{end}}
{{define "footer"}}
		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			Email ini dikirim secara otomatis. Mohon tidak membalas email ini.
		</p>
	</div>
</body>
</html>{{end}}`

const activationHTML = `{{define "activation"}}{{template "header" "Selamat datang di Acara!"}}
		<p style="margin-top: 0;">Halo {{.FullName}},</p>
		<p>Akun <strong>{{.Username}}</strong> ({{.Email}}) berhasil didaftarkan pada {{date .CreatedAt}}.</p>
		<p>Klik tombol di bawah ini untuk mengaktifkan akun Anda.</p>
		<p style="text-align: center; margin: 30px 0;">
			<a href="{{.ActivationLink}}" style="background: #667eea; color: white; padding: 12px 24px; border-radius: 5px; text-decoration: none;">Aktivasi Akun</a>
		</p>
{{template "footer"}}{{end}}`

const voucherHTML = `{{define "voucher"}}{{template "header" "Pembayaran berhasil"}}
		<p style="margin-top: 0;">Halo {{.FullName}}, terima kasih atas pesanan Anda.</p>
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Nomor pesanan</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">{{.OrderID}}</p>
		</div>
		<h2 style="font-size: 18px; border-bottom: 2px solid #667eea; padding-bottom: 10px;">Voucher ({{.Quantity}})</h2>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<tbody>
			{{range $i, $code := .Vouchers}}
				<tr>
					<td style="padding: 12px; border-bottom: 1px solid #eee;">{{inc $i}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; font-family: monospace;">{{$code}}</td>
				</tr>
			{{end}}
			</tbody>
		</table>
		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #667eea; margin-left: 10px;">{{rupiah .Total}}</span>
		</div>
{{template "footer"}}{{end}}`

// BuildActivationBody renders the registration mail.
func BuildActivationBody(data ActivationData) (string, error) {
	return render("activation", data)
}

// BuildVoucherBody renders the voucher mail.
func BuildVoucherBody(data VoucherData) (string, error) {
	return render("voucher", data)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatRupiah formats minor units with dot thousand separators
func formatRupiah(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	str := strconv.FormatInt(n, 10)

	var result strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
	}
	for i := remainder; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(".")
		}
		result.WriteString(str[i : i+3])
	}
	return "Rp " + sign + result.String()
}
