package loads

// Column keys as used by data-col attributes and preferences.
const (
	ColProbill   = "probill"
	ColBOL       = "bol"
	ColOrder     = "order"
	ColPO        = "po"
	ColReceiver  = "receiver"
	ColCity      = "rcity"
	ColProv      = "rprov"
	ColPickup    = "pickup"
	ColRAD       = "rad"
	ColStatus    = "status"
	ColDelDate   = "ddate"
	ColDelTime   = "dtime"
	ColException = "exception"
	ColOnTime    = "ontime"
	ColDelay     = "delay"
	ColComments  = "comments"
)

// Group is a header band spanning a run of columns.
type Group struct {
	Name    string
	Columns []string
}

// Column describes one table column.
type Column struct {
	Key   string
	Title string
	Width int
}

// Columns lists every column in display order.
var Columns = []Column{
	{Key: ColProbill, Title: "Probill", Width: 10},
	{Key: ColBOL, Title: "BOL", Width: 10},
	{Key: ColOrder, Title: "Order", Width: 9},
	{Key: ColPO, Title: "PO", Width: 9},
	{Key: ColReceiver, Title: "Receiver", Width: 18},
	{Key: ColCity, Title: "City", Width: 12},
	{Key: ColProv, Title: "Prov", Width: 4},
	{Key: ColPickup, Title: "Pickup", Width: 10},
	{Key: ColRAD, Title: "RAD", Width: 10},
	{Key: ColStatus, Title: "Status", Width: 14},
	{Key: ColDelDate, Title: "Del Date", Width: 10},
	{Key: ColDelTime, Title: "Del Time", Width: 8},
	{Key: ColException, Title: "Exc", Width: 4},
	{Key: ColOnTime, Title: "On Time", Width: 7},
	{Key: ColDelay, Title: "Delay", Width: 8},
	{Key: ColComments, Title: "Comments", Width: 20},
}

// Groups are the two header bands over the table.
var Groups = []Group{
	{
		Name: "Shipment",
		Columns: []string{
			ColProbill, ColBOL, ColOrder, ColPO, ColReceiver,
			ColCity, ColProv, ColPickup, ColRAD, ColStatus,
		},
	},
	{
		Name:    "Delivery",
		Columns: []string{ColDelDate, ColDelTime, ColException, ColOnTime, ColDelay, ColComments},
	},
}

// DisplayColumns are the keys stored in Row.Columns rather than in a
// dedicated field.
var DisplayColumns = []string{
	ColProbill, ColBOL, ColOrder, ColPO, ColReceiver, ColCity,
	ColProv, ColPickup, ColRAD, ColDelDate, ColDelTime,
}

// ColumnByKey returns the column definition for key.
func ColumnByKey(key string) (Column, bool) {
	for _, c := range Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}
