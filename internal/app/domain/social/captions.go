package social

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// captions are rendered from fixed per platform templates over the vehicle
// row. No external generation service is involved.

var captionPrinter = message.NewPrinter(language.English)

// priceTag formats the asking price with thousands separators, or a call to
// action when the scrape never found one.
func priceTag(v *models.Vehicle) string {
	if v.Price <= 0 {
		return "Call for price"
	}
	return captionPrinter.Sprintf("$%d", v.Price)
}

func mileageTag(v *models.Vehicle) string {
	if v.Mileage <= 0 {
		return ""
	}
	return captionPrinter.Sprintf("%d miles", v.Mileage)
}

// makeHashtag lowercases the make for use as a hashtag, with a generic
// fallback when the make is unknown.
func makeHashtag(v *models.Vehicle) string {
	if v.Make == "" {
		return "auto"
	}
	return strings.ToLower(strings.ReplaceAll(v.Make, " ", ""))
}

func vehicleTitle(v *models.Vehicle) string {
	parts := []string{fmt.Sprintf("%d", v.Year)}
	if v.Make != "" {
		parts = append(parts, v.Make)
	}
	if v.Model != "" {
		parts = append(parts, v.Model)
	}
	return strings.Join(parts, " ")
}

// renderCaption builds the platform's caption and cuts it to the platform
// limit. Limits count characters, not bytes, so the cut is rune based.
func renderCaption(platform string, v *models.Vehicle) string {
	title := vehicleTitle(v)
	price := priceTag(v)
	mileage := mileageTag(v)
	tag := makeHashtag(v)

	var caption string
	switch platform {
	case "instagram":
		caption = fmt.Sprintf("🚗 %s - Now Available! ✨\n\n💰 Price: %s\n📍 Visit us today!\n\n#cars #auto #automotive #cardealer #%s",
			title, price, tag)
	case "facebook":
		spec := price
		if mileage != "" {
			spec = mileage + " | " + price
		}
		caption = fmt.Sprintf("🎉 FEATURED VEHICLE ALERT! 🎉\n\n%s\n%s\n\nDon't miss out! Contact us today for more details.\n\n#cars #auto #cardealer",
			title, spec)
	case "x":
		caption = fmt.Sprintf("🚗 %s - %s 🔥\n\n📞 Call now!\n\n#cars #auto #%s", title, price, tag)
	case "tiktok":
		caption = fmt.Sprintf("🔥 %s Alert! 🚗 Only %s! Perfect condition ✨ #cars #cardealer #automotive #%s",
			title, price, tag)
	case "reddit":
		body := fmt.Sprintf("[For Sale] %s - %s\n\n", title, price)
		if mileage != "" {
			body += "Mileage: " + mileage + "\n\n"
		}
		caption = body + "Located at our dealership. Serious inquiries only. Feel free to ask questions!"
	case "youtube":
		body := fmt.Sprintf("%s | Full Walkaround\n\nPrice: %s\n", title, price)
		if mileage != "" {
			body += "Mileage: " + mileage + "\n"
		}
		caption = body + "\nStop by the dealership or call to schedule a test drive.\n\n#cars #auto #cardealer"
	default:
		caption = fmt.Sprintf("%s - %s. Contact our dealership for details.", title, price)
	}

	return truncateCaption(caption, CharLimit(platform))
}

func truncateCaption(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
