package analysis

import (
	"fmt"
	"strings"

	"github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
)

const brandSystemPrompt = `You identify clothing brands from photos for a sustainability app.
Answer with a single JSON object and nothing else.`

const brandUserPrompt = `Identify the garment in this photo.

1. Look for logos, tags, labels, stitching patterns or signature design details.
2. If no brand is clearly visible, give your best specific guess from the style, cut and quality.
   Never answer "Unknown"; always name a concrete brand.
3. Describe the type of garment and any visible material or style details.

Brands worth considering include Nike, Adidas, H&M, Zara, Uniqlo, Gap, Old Navy, Target, Walmart,
Shein, Fashion Nova, Forever 21, Urban Outfitters, American Eagle, Hollister, Abercrombie,
Lululemon, Patagonia, The North Face, Columbia, Champion, Puma, Reebok, Under Armour,
Ralph Lauren, Tommy Hilfiger, Calvin Klein, Levi's, Wrangler, Carhartt and Dickies.

JSON shape:
{
  "brand": "specific brand name",
  "product_title": "short name of the item",
  "product_description": "longer description with visible features",
  "confidence": 0.0
}
confidence is a number between 0 and 1.`

const reportSystemPrompt = `You are a fashion sustainability analyst. You rate garments on five
categories with whole-number scores from 1 (poor) to 5 (excellent) and reply with JSON only.`

func reportUserPrompt(brand string, info wardrobe.BrandInfo) string {
	return fmt.Sprintf(`Rate this item.

Brand: %s
Product: %s
Description: %s

Scores must reflect what is publicly known about the brand and the item type; do not copy the
placeholder text below. Regional alerts may only use the keys EU, CA, US and UK; use null
for a region with nothing to flag.

{
  "brand": %q,
  "categories": {
    "material_origin": {"score": 1, "description": "where and how the fibres are sourced"},
    "production_impact": {"score": 1, "description": "water, energy and chemical footprint"},
    "labor_ethics": {"score": 1, "description": "working conditions and wages"},
    "end_of_life": {"score": 1, "description": "durability, repairability and recyclability"},
    "brand_transparency": {"score": 1, "description": "supply chain disclosure"}
  },
  "overall_score": 1.0,
  "overall_description": "one or two sentences",
  "regional_alerts": {"EU": null, "CA": null, "US": null, "UK": null}
}`, brand, orDefault(info.ProductTitle, "Unknown product"), orDefault(info.ProductDescription, "No description"), brand)
}

const alternativesSystemPrompt = `You recommend real, purchasable clothing from sustainable brands.
Reply with a JSON array only.`

func alternativesUserPrompt(brand string, info wardrobe.BrandInfo) string {
	return fmt.Sprintf(`Suggest 3 real sustainable alternatives that match the style and type of this item.

Original item
Brand: %s
Product: %s
Description: %s

Prefer these brands:
- Patagonia (outdoor, casual) https://www.patagonia.com
- Pact (organic basics) https://wearpact.com
- Tentree (eco-friendly) https://www.tentree.com
- Everlane (transparent pricing) https://www.everlane.com
- Reformation (trend pieces) https://www.thereformation.com
- Outerknown (surf, casual) https://www.outerknown.com
- Allbirds (comfort) https://www.allbirds.com
- Girlfriend Collective (recycled fibres) https://girlfriend.com
- Kotn (organic cotton) https://kotn.com

Each entry:
{
  "name": "specific product name",
  "brand": "brand name",
  "image_url": "product image URL or empty string",
  "sustainability_score": 4.0,
  "link": "https://brand.example/products/item",
  "why_sustainable": "materials, certifications and practices"
}
sustainability_score is between 4.0 and 5.0 and each suggestion uses a different brand.`,
		brand, orDefault(info.ProductTitle, "Unknown product"), orDefault(info.ProductDescription, "Clothing item"))
}

const querySystemPrompt = `You write Google search queries that find clothing for sale. Reply with the query text only.`

func queryUserPrompt(brand string, info wardrobe.BrandInfo) string {
	return fmt.Sprintf(`Write one shopping search query that finds sustainable alternatives to this item.

Brand: %s
Product: %s
Description: %s

Name the garment type (for example "men's t-shirt", "women's jeans", "rain jacket"), add
"sustainable" or "eco-friendly", and include "buy" or "shop".
Example: buy sustainable organic cotton men's t-shirt`,
		brand, orDefault(info.ProductTitle, "Unknown"), orDefault(info.ProductDescription, "Unknown"))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
