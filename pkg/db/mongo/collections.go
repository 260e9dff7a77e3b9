package mongo

const (
	UsersCollection        = "Users"
	ProductsCollection     = "Products"
	BookingsCollection     = "Bookings"
	BookingLocksCollection = "Booking_locks"
)
