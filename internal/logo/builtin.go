package logo

const (
	AssetABSA      Asset = "assets/absa_logo.jpg"
	AssetCapitec   Asset = "assets/Capitec_logo.png"
	AssetNedbank   Asset = "assets/NEDBANK LOGO.jpg"
	AssetStandard  Asset = "assets/Standard Bank Logo.jpg"
	AssetVodacom   Asset = "assets/Vodacom Logo.jpg"
	AssetTymeBank  Asset = "assets/tymebank_logo.jpg"
	AssetMTNMoMo   Asset = "assets/mtnmomo.jpg"
	AssetNetflix   Asset = "assets/Netflix logo.jpg"
	AssetShowmax   Asset = "assets/showmax logo.jpg"
	AssetSpotify   Asset = "assets/spotify logo.jpg"
	AssetDStv      Asset = "assets/dstv logo.jpg"
	AssetYouTube   Asset = "assets/youtube premium logo.jpg"
)

var (
	banks = NewRegistry(
		Entry{"absa", AssetABSA},
		Entry{"capitec", AssetCapitec},
		Entry{"nedbank", AssetNedbank},
		Entry{"standard bank", AssetStandard},
		Entry{"standard", AssetStandard},
		Entry{"vodacom", AssetVodacom},
		Entry{"vodapay", AssetVodacom},
		Entry{"tymebank", AssetTymeBank},
		Entry{"tyme", AssetTymeBank},
		Entry{"mtn", AssetMTNMoMo},
		Entry{"mtnmomo", AssetMTNMoMo},
		Entry{"mtn momo", AssetMTNMoMo},
	)

	subscriptions = NewRegistry(
		Entry{"netflix", AssetNetflix},
		Entry{"netflix sa", AssetNetflix},
		Entry{"showmax", AssetShowmax},
		Entry{"spotify", AssetSpotify},
		Entry{"dstv", AssetDStv},
		Entry{"dstv now", AssetDStv},
		Entry{"youtube", AssetYouTube},
		Entry{"youtube premium", AssetYouTube},
		Entry{"mtn", AssetMTNMoMo},
		Entry{"mtnmomo", AssetMTNMoMo},
		Entry{"mtn momo", AssetMTNMoMo},
	)
)

// Banks returns the bank and wallet registry.
func Banks() *Registry { return banks }

// Subscriptions returns the subscription and service registry.
func Subscriptions() *Registry { return subscriptions }

// Kind names a built-in registry.
type Kind string

const (
	KindBank         Kind = "bank"
	KindSubscription Kind = "subscription"
)

// ForKind returns the built-in registry for k.
func ForKind(k Kind) (*Registry, bool) {
	switch k {
	case KindBank:
		return banks, true
	case KindSubscription:
		return subscriptions, true
	default:
		return nil, false
	}
}
