package rfi

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publishTimeout bounds how long a publish waits for broker
// acknowledgement.
const publishTimeout = 2 * time.Second

// BaselineSummary is the per-baseline flagging result published over
// MQTT for live observatory monitoring.
type BaselineSummary struct {
	RunID            string  `json:"runId"`
	BaselineID       string  `json:"baselineId"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	FlaggedCount     int     `json:"flaggedCount"`
	FlaggedRatio     float64 `json:"flaggedRatio"`
	ChannelsAffected int     `json:"channelsAffected"`
	Timestamp        int64   `json:"timestamp"`
}

// SummaryPublisher publishes baseline summaries to an MQTT broker:
// each summary to <prefix>/<baselineID>, and the set of latest
// summaries to <prefix>/summary.
type SummaryPublisher struct {
	client    mqtt.Client
	prefix    string
	qos       byte
	retain    bool
	summaries map[string]*BaselineSummary
	mu        sync.RWMutex
}

// NewSummaryPublisher creates a publisher with QoS 0 and retained
// latest-summary messages. An empty prefix defaults to "visflag".
func NewSummaryPublisher(client mqtt.Client, prefix string) *SummaryPublisher {
	if prefix == "" {
		prefix = "visflag"
	}
	return &SummaryPublisher{
		client:    client,
		prefix:    prefix,
		qos:       0,
		retain:    true,
		summaries: make(map[string]*BaselineSummary),
	}
}

// Summarize builds a summary from a flag mask.
func Summarize(runID, baselineID string, mask *FlagMask) BaselineSummary {
	flagged := mask.Mask().Count()
	total := mask.Width() * mask.Height()
	ratio := 0.0
	if total > 0 {
		ratio = float64(flagged) / float64(total)
	}
	channels := 0
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			if mask.Value(x, y) {
				channels++
				break
			}
		}
	}
	return BaselineSummary{
		RunID:            runID,
		BaselineID:       baselineID,
		Width:            mask.Width(),
		Height:           mask.Height(),
		FlaggedCount:     flagged,
		FlaggedRatio:     ratio,
		ChannelsAffected: channels,
		Timestamp:        time.Now().Unix(),
	}
}

// Publish sends a baseline summary to its topic and refreshes the
// combined summary topic.
func (p *SummaryPublisher) Publish(summary BaselineSummary) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	p.mu.Lock()
	s := summary
	p.summaries[summary.BaselineID] = &s
	p.mu.Unlock()

	if err := p.publishIndividual(&summary); err != nil {
		return err
	}
	return p.publishCombined()
}

func (p *SummaryPublisher) publishIndividual(summary *BaselineSummary) error {
	topic := fmt.Sprintf("%s/%s", p.prefix, summary.BaselineID)
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

func (p *SummaryPublisher) publishCombined() error {
	p.mu.RLock()
	summaries := make([]*BaselineSummary, 0, len(p.summaries))
	for _, s := range p.summaries {
		summaries = append(summaries, s)
	}
	p.mu.RUnlock()

	topic := fmt.Sprintf("%s/summary", p.prefix)
	message := map[string]interface{}{
		"baselines": summaries,
		"timestamp": time.Now().Unix(),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling combined summary: %w", err)
	}
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// Summary returns the last published summary for a baseline.
func (p *SummaryPublisher) Summary(baselineID string) (*BaselineSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.summaries[baselineID]
	return s, ok
}

// ConnectBroker connects a plain MQTT client to broker with the given
// client id, using auto-reconnect.
func ConnectBroker(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	if clientID == "" {
		clientID = "visflag"
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("connecting to MQTT broker %s: timeout", broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, token.Error())
	}
	return client, nil
}
