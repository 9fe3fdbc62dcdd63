package domain

import (
	"fmt"
	"strings"
)

// Garden is a saved list of plants for one query. It is shared by ReadID and
// edited by WriteID.
type Garden struct {
	ReadID      string   `json:"readId"`
	WriteID     string   `json:"writeId,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Zip         string   `json:"zipcode"`
	RegionName  *string  `json:"regionName,omitempty"`
	Shade       Shade    `json:"shade"`
	Moisture    Moisture `json:"moisture"`
	Plants      []Plant  `json:"plants"`
	ReadOnly    bool     `json:"readOnly"`
}

// GardenKeys are the two ids issued when a garden is created.
type GardenKeys struct {
	ReadID  string `json:"readId"`
	WriteID string `json:"writeId"`
}

// Nursery is a plant seller near a zip code.
type Nursery struct {
	Name    string  `json:"name"`
	URL     *string `json:"url,omitempty"`
	MapURL  *string `json:"mapUrl,omitempty"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Zip     string  `json:"zip"`
	Miles   int     `json:"miles"`
}

// DefaultMapURL is a map search for the nursery name near its zip code.
func (n Nursery) DefaultMapURL() string {
	zip := n.Zip
	if len(zip) < 5 {
		zip = strings.Repeat("0", 5-len(zip)) + zip
	}
	query := strings.ReplaceAll(fmt.Sprintf("%s near %s", n.Name, zip), " ", "+")
	return "https://www.google.com/maps/search/?api=1&query=" + query
}
