package valueobjects

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

func ParseDeliveryStatus(raw string) (DeliveryStatus, bool) {
	switch DeliveryStatus(raw) {
	case DeliveryStatusPending, DeliveryStatusDelivered, DeliveryStatusFailed:
		return DeliveryStatus(raw), true
	default:
		return "", false
	}
}
