// Command demoseed fills a running API with a demo account, a few vehicles
// and a year of maintenance history.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle is the create body of POST /vehicles.
type Vehicle struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	CurrentKm    int    `json:"current_km"`
	LicensePlate string `json:"license_plate"`
}

// MaintenanceType is the subset of a type the seeder needs.
type MaintenanceType struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	DefaultIntervalKm *int   `json:"default_interval_km"`
}

// MaintenanceEvent is the body of POST /vehicles/{id}/maintenance.
type MaintenanceEvent struct {
	MaintenanceTypeID string    `json:"maintenance_type_id"`
	KmPerformed       int       `json:"km_performed"`
	DatePerformed     time.Time `json:"date_performed"`
	ServiceCost       float64   `json:"service_cost"`
	ProductCost       float64   `json:"product_cost"`
	Category          string    `json:"category"`
	Notes             string    `json:"notes,omitempty"`
}

var catalog = []Vehicle{
	{Make: "Toyota", Model: "Corolla", Year: 2019},
	{Make: "Volkswagen", Model: "Gol", Year: 2016},
	{Make: "Honda", Model: "Civic", Year: 2021},
	{Make: "Fiat", Model: "Uno", Year: 2012},
	{Make: "Chevrolet", Model: "Onix", Year: 2020},
	{Make: "Renault", Model: "Kwid", Year: 2022},
}

// Client talks to the maintenance API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Detail)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var payload struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(body, &payload)
		return &apiError{Status: resp.StatusCode, Detail: payload.Detail}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) doJSON(method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// Register creates the account. An existing account is not an error.
func (c *Client) Register(email, password string) error {
	err := c.doJSON(http.MethodPost, "/register", map[string]string{"email": email, "password": password, "name": "Demo"}, nil)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		log.WithField("email", email).Info("Demo account already exists")
		return nil
	}
	return err
}

// Login stores a bearer token for later calls.
func (c *Client) Login(email, password string) error {
	form := url.Values{"username": {email}, "password": {password}}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.send(req, &token); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if token.AccessToken == "" {
		return errors.New("login returned no token")
	}
	c.Token = token.AccessToken
	return nil
}

func (c *Client) CreateVehicle(v Vehicle) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(http.MethodPost, "/vehicles", v, &created); err != nil {
		return "", fmt.Errorf("failed to create vehicle: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("invalid vehicle ID in response")
	}
	return created.ID, nil
}

func (c *Client) Types() ([]MaintenanceType, error) {
	var types []MaintenanceType
	if err := c.doJSON(http.MethodGet, "/maintenance-types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// Record posts one maintenance event and returns the next due km.
func (c *Client) Record(vehicleID string, ev MaintenanceEvent) (int, error) {
	var result struct {
		NextDueKm int `json:"next_due_km"`
	}
	if err := c.doJSON(http.MethodPost, "/vehicles/"+vehicleID+"/maintenance", ev, &result); err != nil {
		return 0, err
	}
	return result.NextDueKm, nil
}

// Summary counts what a seed run created.
type Summary struct {
	Vehicles int
	Events   int
}

// Seed creates count vehicles and walks each through months of history
// ending at now. Only types with a km interval are scheduled.
func Seed(c *Client, count, months int, now time.Time, rng *rand.Rand) (Summary, error) {
	var sum Summary

	types, err := c.Types()
	if err != nil {
		return sum, fmt.Errorf("failed to list maintenance types: %w", err)
	}
	var scheduled []MaintenanceType
	for _, t := range types {
		if t.DefaultIntervalKm != nil && *t.DefaultIntervalKm > 0 {
			scheduled = append(scheduled, t)
		}
	}
	if len(scheduled) == 0 {
		return sum, errors.New("no maintenance types with a km interval")
	}

	for i := 0; i < count; i++ {
		v := catalog[i%len(catalog)]
		startKm := 10000 + rng.Intn(60000)
		v.CurrentKm = startKm
		v.LicensePlate = fmt.Sprintf("DMO%04d", rng.Intn(10000))

		vehicleID, err := c.CreateVehicle(v)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		sum.Vehicles++

		kmPerMonth := 800 + rng.Intn(1200)
		for m := months; m >= 0; m-- {
			t := scheduled[rng.Intn(len(scheduled))]
			ev := MaintenanceEvent{
				MaintenanceTypeID: t.ID,
				KmPerformed:       startKm + (months-m)*kmPerMonth,
				DatePerformed:     now.AddDate(0, -m, -rng.Intn(20)),
				ServiceCost:       float64(50 + rng.Intn(150)),
				ProductCost:       float64(rng.Intn(400)),
				Category:          []string{"preventive", "wear", "corrective"}[rng.Intn(3)],
			}
			next, err := c.Record(vehicleID, ev)
			if err != nil {
				log.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to record maintenance")
				continue
			}
			sum.Events++
			log.WithFields(log.Fields{
				"vehicle_id":  vehicleID,
				"type":        t.Name,
				"km":          ev.KmPerformed,
				"next_due_km": next,
			}).Debug("Recorded maintenance")
		}

		log.WithFields(log.Fields{
			"vehicle_id": vehicleID,
			"make":       v.Make,
			"model":      v.Model,
		}).Info("Created vehicle")
	}

	if sum.Vehicles == 0 {
		return sum, errors.New("no vehicles created")
	}
	return sum, nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	apiURL := envString("API_BASE_URL", "http://localhost:8080")
	email := envString("DEMO_EMAIL", "demo@manutencar.app")
	password := envString("DEMO_PASSWORD", "demo-password")
	count := envInt("DEMO_VEHICLES", 3)
	months := envInt("DEMO_MONTHS", 12)

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"email":    email,
		"vehicles": count,
		"months":   months,
	}).Info("Seeding demo data")

	c := NewClient(apiURL)
	if err := c.Register(email, password); err != nil {
		log.WithError(err).Fatal("Registration failed")
	}
	if err := c.Login(email, password); err != nil {
		log.WithError(err).Fatal("Login failed")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sum, err := Seed(c, count, months, time.Now().UTC(), rng)
	if err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
	log.WithFields(log.Fields{
		"vehicles": sum.Vehicles,
		"events":   sum.Events,
	}).Info("Demo data ready")
}
