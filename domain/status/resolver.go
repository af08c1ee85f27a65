package status

import (
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
)

// ResolveEffectiveStatus derives the effective status from the coarse order
// status, the shipment status and the payment status. Rules apply in order:
//   - order completed -> delivered
//   - shipment delivered -> delivered
//   - shipment shipped with payment paid, pending or absent -> shipped
//   - recognised order status -> that status
//   - otherwise unknown
func ResolveEffectiveStatus(orderStatus, shipmentStatus, paymentStatus string) EffectiveStatus {
	orderStatus = normalize(orderStatus)
	shipmentStatus = normalize(shipmentStatus)
	paymentStatus = normalize(paymentStatus)

	if orderStatus == entities.OrderStatusCompleted {
		return Delivered
	}

	if shipmentStatus == entities.OrderStatusDelivered {
		return Delivered
	}

	if shipmentStatus == entities.OrderStatusShipped {
		switch paymentStatus {
		case entities.PaymentStatusPaid, entities.PaymentStatusPending, "":
			return Shipped
		}
	}

	return FromString(orderStatus)
}

func ResolveOrder(order entities.Order) EffectiveStatus {
	return ResolveEffectiveStatus(order.Status, order.ShipmentStatusValue(), order.PaymentStatus)
}
