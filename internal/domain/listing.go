package domain

// Field names a single ListingRecord field as it travels over the wire.
type Field string

const (
	FieldTitle         Field = "title"
	FieldPropertyType  Field = "propertyType"
	FieldPrice         Field = "price"
	FieldLocation      Field = "location"
	FieldContact       Field = "contact"
	FieldAuctionDate   Field = "auctionDate"
	FieldDescription   Field = "description"
	FieldArea          Field = "area"
	FieldBuiltUpArea   Field = "builtUpArea"
	FieldLandArea      Field = "landArea"
	FieldPlotNumber    Field = "plotNumber"
	FieldApartmentName Field = "apartmentName"
	FieldFloorNumber   Field = "floorNumber"
	FieldFacing        Field = "facing"
	FieldParking       Field = "parking"
	FieldUDS           Field = "uds"
)

// Fields lists every editable field in form order.
var Fields = []Field{
	FieldTitle, FieldPropertyType, FieldPrice, FieldAuctionDate, FieldLocation,
	FieldBuiltUpArea, FieldLandArea, FieldUDS, FieldApartmentName, FieldFloorNumber,
	FieldPlotNumber, FieldFacing, FieldParking, FieldContact, FieldDescription, FieldArea,
}

// ListingRecord is the flat set of user-entered text describing a property.
// Nothing is typed or validated; every field is free text.
type ListingRecord struct {
	Title         string `json:"title" yaml:"title"`
	PropertyType  string `json:"propertyType" yaml:"propertyType"`
	Price         string `json:"price" yaml:"price"`
	Location      string `json:"location" yaml:"location"`
	Contact       string `json:"contact" yaml:"contact"`
	AuctionDate   string `json:"auctionDate" yaml:"auctionDate"`
	Description   string `json:"description" yaml:"description"`
	Area          string `json:"area" yaml:"area"`
	BuiltUpArea   string `json:"builtUpArea" yaml:"builtUpArea"`
	LandArea      string `json:"landArea" yaml:"landArea"`
	PlotNumber    string `json:"plotNumber" yaml:"plotNumber"`
	ApartmentName string `json:"apartmentName" yaml:"apartmentName"`
	FloorNumber   string `json:"floorNumber" yaml:"floorNumber"`
	Facing        string `json:"facing" yaml:"facing"`
	Parking       string `json:"parking" yaml:"parking"`
	UDS           string `json:"uds" yaml:"uds"`
}

// DefaultListing is the sample record a fresh editing session starts from.
func DefaultListing() ListingRecord {
	return ListingRecord{
		Title:         "FLAT FOR SALE",
		Price:         "RS.45,00,000/-",
		Location:      "PERUMBAKKAM, KANCHEEPURAM DISTRICT",
		Description:   "Beautiful property with modern amenities",
		Contact:       "9884866115",
		AuctionDate:   "21.05.2025",
		PropertyType:  "RESIDENTIAL FLAT",
		Area:          "1084 SFT",
		BuiltUpArea:   "1084 SFT",
		LandArea:      "446 SFT",
		PlotNumber:    "3",
		ApartmentName: "DHATHA SAI NIVAS APARTMENTS",
		FloorNumber:   "S2",
		Facing:        "EAST",
		Parking:       "ONE COVER CAR PARKING",
		UDS:           "661",
	}
}

func (r *ListingRecord) ref(f Field) *string {
	switch f {
	case FieldTitle:
		return &r.Title
	case FieldPropertyType:
		return &r.PropertyType
	case FieldPrice:
		return &r.Price
	case FieldLocation:
		return &r.Location
	case FieldContact:
		return &r.Contact
	case FieldAuctionDate:
		return &r.AuctionDate
	case FieldDescription:
		return &r.Description
	case FieldArea:
		return &r.Area
	case FieldBuiltUpArea:
		return &r.BuiltUpArea
	case FieldLandArea:
		return &r.LandArea
	case FieldPlotNumber:
		return &r.PlotNumber
	case FieldApartmentName:
		return &r.ApartmentName
	case FieldFloorNumber:
		return &r.FloorNumber
	case FieldFacing:
		return &r.Facing
	case FieldParking:
		return &r.Parking
	case FieldUDS:
		return &r.UDS
	}
	return nil
}

// With returns a copy of r with field f set to v. The receiver is untouched.
func (r ListingRecord) With(f Field, v string) (ListingRecord, error) {
	p := r.ref(f)
	if p == nil {
		return r, ErrUnknownField
	}
	*p = v
	return r, nil
}

// Get returns the value of field f.
func (r ListingRecord) Get(f Field) (string, bool) {
	p := r.ref(f)
	if p == nil {
		return "", false
	}
	return *p, true
}
