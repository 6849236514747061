package email

import "fmt"

// BuildDiscrepancyAlertBody builds the HTML body for a discrepancy alert.
func BuildDiscrepancyAlertBody(caseID, description string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #c0392b; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Discrepancy Case Opened</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">A controlled-substance discrepancy was reported and needs review.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Case</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #c0392b; padding-bottom: 10px;">Description</h2>
		<p>%s</p>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This message was sent automatically. Review the case in the custody console.
		</p>
	</div>
</body>
</html>`, caseID, description)
}

// BuildWasteWitnessedBody builds the HTML body for a waste confirmation.
func BuildWasteWitnessedBody(wasteID, details string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #2c3e50; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Waste Witnessed</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">A controlled-substance waste was completed under dual control.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Waste record</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<p>%s</p>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This message was sent automatically for the compliance file.
		</p>
	</div>
</body>
</html>`, wasteID, details)
}
