package fellow

// Device is the snapshot of the active brewer taken right after login.
type Device struct {
	ID                      string  `json:"id"`
	DisplayName             string  `json:"displayName"`
	SerialNumber            string  `json:"serialNumber"`
	FirmwareVersion         string  `json:"firmwareVersion"`
	IsConnected             bool    `json:"isConnected"`
	TotalBrewingCycles      int     `json:"totalBrewingCycles"`
	TotalWaterVolumeL       float64 `json:"totalWaterVolumeL"`
	CarafePresent           bool    `json:"carafePresent"`
	SingleBrewBasketPresent bool    `json:"singleBrewBasketPresent"`
	BatchBrewBasketPresent  bool    `json:"batchBrewBasketPresent"`
	SelectedProfileID       string  `json:"selectedProfileId"`
	Brewing                 bool    `json:"brewing"`

	// Attributes holds every field the API returned for the device.
	Attributes map[string]any `json:"-"`
}

// Status is the operational view of a device, as printed by the status
// command and published over MQTT.
type Status struct {
	DeviceID                string  `json:"device_id"`
	DisplayName             string  `json:"display_name"`
	Connected               bool    `json:"connected"`
	Brewing                 bool    `json:"brewing"`
	CarafePresent           bool    `json:"carafe_present"`
	SingleBrewBasketPresent bool    `json:"single_brew_basket_present"`
	BatchBrewBasketPresent  bool    `json:"batch_brew_basket_present"`
	SelectedProfileID       string  `json:"selected_profile_id"`
	TotalBrewingCycles      int     `json:"total_brewing_cycles"`
	TotalWaterVolumeL       float64 `json:"total_water_volume_l"`
	SerialNumber            string  `json:"serial_number"`
	FirmwareVersion         string  `json:"firmware_version"`
}

func (d Device) Status() Status {
	return Status{
		DeviceID:                d.ID,
		DisplayName:             d.DisplayName,
		Connected:               d.IsConnected,
		Brewing:                 d.Brewing,
		CarafePresent:           d.CarafePresent,
		SingleBrewBasketPresent: d.SingleBrewBasketPresent,
		BatchBrewBasketPresent:  d.BatchBrewBasketPresent,
		SelectedProfileID:       d.SelectedProfileID,
		TotalBrewingCycles:      d.TotalBrewingCycles,
		TotalWaterVolumeL:       d.TotalWaterVolumeL,
		SerialNumber:            d.SerialNumber,
		FirmwareVersion:         d.FirmwareVersion,
	}
}

// Profile is a brew profile as returned by the API. Fields are kept
// opaque so the server document round-trips unchanged.
type Profile map[string]any

func (p Profile) ID() string {
	return stringField(p, "id")
}

func (p Profile) Title() string {
	return stringField(p, "title")
}

// Schedule is a brew schedule as returned by the API.
type Schedule map[string]any

func (s Schedule) ID() string {
	return stringField(s, "id")
}

func stringField(doc map[string]any, key string) string {
	value, _ := doc[key].(string)
	return value
}
