package normalize

import "strings"

const (
	// PlaceholderImageURL is used when neither upstream nor the table has an icon.
	PlaceholderImageURL = "https://via.placeholder.com/64"
	// PlaceholderHomepage is a non-navigating link target.
	PlaceholderHomepage = "#"
)

// coinInfo is one row of the static fallback table.
type coinInfo struct {
	name  string
	image string
}

// coinTable is the single shared fallback table keyed by uppercased symbol.
// It is never written after package init.
var coinTable = map[string]coinInfo{
	"BTC":   {name: "Bitcoin", image: "https://assets.coingecko.com/coins/images/1/large/bitcoin.png"},
	"ETH":   {name: "Ethereum", image: "https://assets.coingecko.com/coins/images/279/large/ethereum.png"},
	"BNB":   {name: "BNB", image: "https://assets.coingecko.com/coins/images/825/large/bnb-icon2_2x.png"},
	"XRP":   {name: "XRP", image: "https://assets.coingecko.com/coins/images/44/large/xrp-symbol-white-128.png"},
	"ADA":   {name: "Cardano", image: "https://assets.coingecko.com/coins/images/975/large/cardano.png"},
	"SOL":   {name: "Solana", image: "https://assets.coingecko.com/coins/images/4128/large/solana.png"},
	"DOGE":  {name: "Dogecoin", image: "https://assets.coingecko.com/coins/images/5/large/dogecoin.png"},
	"DOT":   {name: "Polkadot", image: "https://assets.coingecko.com/coins/images/12171/large/polkadot.png"},
	"AVAX":  {name: "Avalanche", image: "https://assets.coingecko.com/coins/images/12559/large/Avalanche_Circle_RedWhite_Trans.png"},
	"MATIC": {name: "Polygon", image: "https://assets.coingecko.com/coins/images/4713/large/matic-token-icon.png"},
	"SHIB":  {name: "Shiba Inu", image: "https://assets.coingecko.com/coins/images/11939/large/shiba.png"},
	"LTC":   {name: "Litecoin", image: "https://assets.coingecko.com/coins/images/2/large/litecoin.png"},
	"TRX":   {name: "TRON", image: "https://assets.coingecko.com/coins/images/1094/large/tron-logo.png"},
	"UNI":   {name: "Uniswap", image: "https://assets.coingecko.com/coins/images/12504/large/uniswap-uni.png"},
	"LINK":  {name: "Chainlink", image: "https://assets.coingecko.com/coins/images/877/large/chainlink-new-logo.png"},
	"ATOM":  {name: "Cosmos"},
	"XMR":   {name: "Monero"},
	"ETC":   {name: "Ethereum Classic"},
	"BCH":   {name: "Bitcoin Cash"},
	"XLM":   {name: "Stellar"},
	"ALGO":  {name: "Algorand"},
	"VET":   {name: "VeChain"},
	"FIL":   {name: "Filecoin"},
	"ICP":   {name: "Internet Computer"},
	"HBAR":  {name: "Hedera"},
	"NEAR":  {name: "NEAR Protocol"},
	"MANA":  {name: "Decentraland"},
	"SAND":  {name: "The Sandbox"},
	"CRO":   {name: "Cronos"},
	"APE":   {name: "ApeCoin"},
}

func lookup(symbol string) (coinInfo, bool) {
	info, ok := coinTable[strings.ToUpper(strings.TrimSpace(symbol))]
	return info, ok
}

// FallbackName returns the table name for symbol, or symbol itself.
func FallbackName(symbol string) string {
	if info, ok := lookup(symbol); ok && info.name != "" {
		return info.name
	}
	return symbol
}

// FallbackImage returns the table icon for symbol, or the placeholder.
func FallbackImage(symbol string) string {
	if info, ok := lookup(symbol); ok && info.image != "" {
		return info.image
	}
	return PlaceholderImageURL
}

// FallbackDescription is the templated sentence used when the upstream
// sends no description.
func FallbackDescription(name string) string {
	return name + " is a cryptocurrency available on various exchanges."
}
